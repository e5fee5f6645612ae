package orders

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusApproved  PaymentStatus = "approved"
	StatusInProcess PaymentStatus = "in_process"
	StatusRejected  PaymentStatus = "rejected"
	StatusCancelled PaymentStatus = "cancelled"
	StatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusInProcess, StatusRejected, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodPix          PaymentMethod = "pix"
	MethodCard2x       PaymentMethod = "2x"
	MethodCard4x       PaymentMethod = "4x"
	MethodPayPal       PaymentMethod = "paypal"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodTicket       PaymentMethod = "ticket"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodAccountMoney PaymentMethod = "account_money"
	MethodInPerson     PaymentMethod = "in_person"
)
