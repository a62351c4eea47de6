package enums

import "fmt"

// PaymentMethod enumerates how a buyer claims to have paid. Every method is
// settled offline and verified manually by an administrator.
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodMobilePayment PaymentMethod = "mobile_payment"
	PaymentMethodZelle         PaymentMethod = "zelle"
	PaymentMethodPayPal        PaymentMethod = "paypal"
	PaymentMethodBinance       PaymentMethod = "binance"
	PaymentMethodCard          PaymentMethod = "card"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodBankTransfer,
	PaymentMethodMobilePayment,
	PaymentMethodZelle,
	PaymentMethodPayPal,
	PaymentMethodBinance,
	PaymentMethodCard,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the method is recognized.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
