package models

type User struct {
	ID               uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email            string   `gorm:"unique;not null"          json:"email"`
	PasswordHash     string   `gorm:"not null"                 json:"-"`
	Permissions      []string `gorm:"serializer:json"          json:"permissions"`
	ResetToken       string   `gorm:"index"                    json:"-"`
	ResetTokenExpiry int64    `json:"-"`
}

type Item struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"not null"                 json:"title"`
	Description string `gorm:"not null"                 json:"description"`
	Price       int64  `gorm:"not null"                 json:"price"`
	Image       string `json:"image"`
	LargeImage  string `json:"large_image"`
	UserID      uint   `gorm:"index;not null"           json:"user_id"`
}

type CartItem struct {
	ID       uint `gorm:"primaryKey"                  json:"id"`
	UserID   uint `gorm:"index;not null"              json:"user_id"`
	ItemID   uint `gorm:"not null"                    json:"item_id"`
	Quantity uint `gorm:"default:1;check:quantity>0"  json:"quantity"`
	Item     Item `gorm:"foreignKey:ItemID"           json:"item"`
}

type Order struct {
	ID        uint        `gorm:"primaryKey"         json:"id"`
	UserID    uint        `gorm:"index;not null"     json:"user_id"`
	Total     int64       `gorm:"not null"           json:"total"`
	Charge    string      `gorm:"unique;not null"    json:"charge"`
	CreatedAt int64       `gorm:"not null"           json:"created_at"`
	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem is a point-in-time copy of the purchased item. It keeps no
// reference to the live Item row, so order history survives later edits
// and deletions.
type OrderItem struct {
	ID          uint   `gorm:"primaryKey"                  json:"id"`
	OrderID     uint   `gorm:"index;not null"              json:"order_id"`
	UserID      uint   `gorm:"index;not null"              json:"user_id"`
	Title       string `gorm:"not null"                    json:"title"`
	Description string `gorm:"not null"                    json:"description"`
	Price       int64  `gorm:"not null"                    json:"price"`
	Image       string `json:"image"`
	LargeImage  string `json:"large_image"`
	Quantity    uint   `gorm:"default:1;check:quantity>0"  json:"quantity"`
}
