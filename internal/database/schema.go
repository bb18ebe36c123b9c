package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the MySQL store.  The UNIQUE KEYs on accounts are
// what makes concurrent registrations with the same username or email fail
// deterministically with error 1062.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username      VARCHAR(64)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		first_name    VARCHAR(100) NOT NULL DEFAULT '',
		last_name     VARCHAR(100) NOT NULL DEFAULT '',
		phone_number  VARCHAR(32)  NOT NULL DEFAULT '',
		address       VARCHAR(255) NOT NULL DEFAULT '',
		avatar        VARCHAR(512) NULL,
		password_hash VARCHAR(100) NOT NULL,
		created_at    DATETIME     NOT NULL,
		updated_at    DATETIME     NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY ux_accounts_username (username),
		UNIQUE KEY ux_accounts_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title          VARCHAR(200)  NOT NULL,
		description    TEXT          NOT NULL,
		price          DECIMAL(12,2) NOT NULL DEFAULT 0,
		color          VARCHAR(64)   NOT NULL DEFAULT '',
		dimensions     VARCHAR(64)   NOT NULL DEFAULT '',
		type           VARCHAR(100)  NOT NULL DEFAULT '',
		image_url      VARCHAR(512)  NOT NULL DEFAULT '',
		owner_username VARCHAR(64)   NOT NULL,
		created_at     DATETIME      NOT NULL,
		updated_at     DATETIME      NOT NULL,
		PRIMARY KEY (id),
		KEY ix_products_type (type),
		KEY ix_products_owner (owner_username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables used by the MySQL repositories.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
