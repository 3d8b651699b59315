package model

import "time"

// カートの明細。
// title / unit_price / discount_percentage / thumbnail は
// 追加時点のカタログ値のスナップショットを必ず保存。
type CartItem struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID             int64     `gorm:"not null;index" json:"cart_id"`
	ProductID          int64     `gorm:"not null;index" json:"product_id"`
	Title              string    `gorm:"type:varchar(255);not null" json:"title"`
	UnitPrice          float64   `gorm:"not null;column:unit_price" json:"unit_price"`
	DiscountPercentage float64   `gorm:"not null;default:0" json:"discount_percentage"`
	Quantity           int64     `gorm:"not null" json:"quantity"`
	Total              float64   `gorm:"not null" json:"total"`
	DiscountedTotal    float64   `gorm:"not null" json:"discounted_total"`
	Thumbnail          string    `gorm:"type:text" json:"thumbnail"`
	CreatedAt          time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
