package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"storefront/config"
)

var DB *sql.DB

func InitDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return err
	}

	DB = db
	return ensureSchema(db)
}

func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS carts (
			cart_id    VARCHAR(64) PRIMARY KEY,
			items      JSON NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id               VARCHAR(64) PRIMARY KEY,
			user_id          INT NOT NULL,
			subtotal         BIGINT NOT NULL,
			discount         BIGINT NOT NULL,
			shipping         BIGINT NOT NULL,
			tax              BIGINT NOT NULL,
			total            BIGINT NOT NULL,
			coupon           JSON NULL,
			shipping_method  JSON NULL,
			shipping_address JSON NULL,
			payment_method   VARCHAR(40) NOT NULL,
			status           VARCHAR(20) NOT NULL,
			created_at       DATETIME NOT NULL,
			INDEX idx_orders_user (user_id, created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id           BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id     VARCHAR(64) NOT NULL,
			product_id   VARCHAR(64) NOT NULL,
			product_name VARCHAR(200) NOT NULL,
			price        BIGINT NOT NULL,
			quantity     INT NOT NULL,
			image        VARCHAR(500) NOT NULL DEFAULT '',
			INDEX idx_items_order (order_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
