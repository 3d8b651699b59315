package model

import "time"

// カタログ商品。カートエンジンからは読み取り専用。
type Product struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title              string    `gorm:"type:varchar(255);not null" json:"title"`
	Price              float64   `gorm:"not null" json:"price"`
	DiscountPercentage float64   `gorm:"not null;default:0" json:"discount_percentage"`
	Thumbnail          string    `gorm:"type:text" json:"thumbnail"`
	CreatedAt          time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
