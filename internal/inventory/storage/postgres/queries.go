package postgres

// SQL queries for the inventory projection.

const (
	// queryUpsertRecord writes the projection row for one product id.
	// ON CONFLICT on the product_id natural key makes the write idempotent:
	// replaying the same envelope overwrites quantity in place and refreshes
	// last_updated, it never creates a second row. The surrogate id in $1 is
	// only used on first insert.
	queryUpsertRecord = `
		INSERT INTO inventory (id, product_id, quantity, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    last_updated = EXCLUDED.last_updated
	`

	queryGetByProductID = `
		SELECT id, product_id, quantity, last_updated
		FROM inventory
		WHERE product_id = $1
	`

	queryListRecords = `
		SELECT id, product_id, quantity, last_updated
		FROM inventory
		ORDER BY product_id ASC
	`
)
