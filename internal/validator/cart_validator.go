package validator

import "fmt"

// エラー種別（レスポンスのerrorフィールドにそのまま出す）
const (
	KindInvalidUserID      = "InvalidUserId"
	KindEmptyProductList   = "EmptyProductList"
	KindInvalidQuantity    = "InvalidQuantity"
	KindQuantityOutOfRange = "QuantityOutOfRange"
	KindMalformedRequest   = "MalformedRequest"
)

// 数量の上限（1〜99が有効）
const MaxQuantity = 99

type ValidationError struct {
	Kind    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Kind + ": " + e.Message
}

// リクエスト中の1商品行
type ProductEntry struct {
	ProductID int64
	Quantity  int64
}

// 作成リクエストを検証。状態には一切触れない純関数。
func ValidateCreate(userID int64, products []ProductEntry) *ValidationError {
	if userID <= 0 {
		return &ValidationError{Kind: KindInvalidUserID, Message: "userId must be a positive integer"}
	}
	if len(products) == 0 {
		return &ValidationError{Kind: KindEmptyProductList, Message: "products must not be empty"}
	}
	return validateEntries(products)
}

// 更新リクエストを検証。空配列は許可（merge=trueならno-op、falseなら全削除）。
func ValidateUpdate(products []ProductEntry) *ValidationError {
	return validateEntries(products)
}

func validateEntries(products []ProductEntry) *ValidationError {
	for _, p := range products {
		if p.ProductID <= 0 {
			return &ValidationError{Kind: KindMalformedRequest, Message: "product id must be a positive integer"}
		}
		if p.Quantity <= 0 {
			return &ValidationError{
				Kind:    KindInvalidQuantity,
				Message: fmt.Sprintf("quantity for product %d must be a positive integer", p.ProductID),
			}
		}
		if p.Quantity > MaxQuantity {
			return &ValidationError{
				Kind:    KindQuantityOutOfRange,
				Message: fmt.Sprintf("quantity for product %d must be at most %d", p.ProductID, MaxQuantity),
			}
		}
	}
	return nil
}
