// internal/policy/sql.go
package policy

// CallerSetting is the transaction-local setting the row-level-security
// policies compare owner_id against.
const CallerSetting = "app.user_id"

// RowLevelSecurity installs the listing rules in PostgreSQL. FORCE makes
// them apply to the table owner too; only superusers bypass them. No
// DELETE policy exists, so deletes are denied by default.
var RowLevelSecurity = []string{
	`ALTER TABLE listings ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE listings FORCE ROW LEVEL SECURITY`,

	`DROP POLICY IF EXISTS listings_select ON listings`,
	`CREATE POLICY listings_select ON listings FOR SELECT
		USING (COALESCE(current_setting('app.user_id', true), '') <> '')`,

	`DROP POLICY IF EXISTS listings_insert ON listings`,
	`CREATE POLICY listings_insert ON listings FOR INSERT
		WITH CHECK (owner_id IS NOT NULL AND owner_id::text = current_setting('app.user_id', true))`,

	`DROP POLICY IF EXISTS listings_update ON listings`,
	`CREATE POLICY listings_update ON listings FOR UPDATE
		USING (owner_id IS NOT NULL AND owner_id::text = current_setting('app.user_id', true))
		WITH CHECK (owner_id IS NOT NULL AND owner_id::text = current_setting('app.user_id', true))`,
}
