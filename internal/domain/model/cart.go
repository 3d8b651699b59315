package model

import "time"

// 1カート = 1レコード。削除はソフトデリート（行は残して is_deleted を立てる）。
// 集計値（Total など）は Items から再計算した結果を保存する。
// gorm.DeletedAt は使わない：削除済みカートも GET で読めるため。
type Cart struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64      `gorm:"not null;index" json:"user_id"`
	Items           []CartItem `gorm:"foreignKey:CartID" json:"items"`
	Total           float64    `gorm:"not null" json:"total"`
	DiscountedTotal float64    `gorm:"not null" json:"discounted_total"`
	TotalProducts   int64      `gorm:"not null" json:"total_products"`
	TotalQuantity   int64      `gorm:"not null" json:"total_quantity"`
	IsDeleted       bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt       *time.Time `json:"deleted_at"`
	CreatedAt       time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
