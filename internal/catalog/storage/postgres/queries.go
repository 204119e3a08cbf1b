package postgres

// SQL queries for catalog persistence.

const (
	queryCreateProduct = `
		INSERT INTO products (id, name, description, price, quantity, category)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	queryGetProductByID = `
		SELECT id, name, description, price, quantity, category
		FROM products
		WHERE id = $1
	`

	queryGetAllProducts = `
		SELECT id, name, description, price, quantity, category
		FROM products
		ORDER BY name ASC
	`

	queryUpdateProduct = `
		UPDATE products
		SET name = $2,
		    description = $3,
		    price = $4,
		    quantity = $5,
		    category = $6
		WHERE id = $1
	`

	queryDeleteProduct = `
		DELETE FROM products
		WHERE id = $1
	`
)
