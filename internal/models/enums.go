package models

// Enumerated values stored on the documents. Validation lives in
// internal/service, which registers one validator tag per list.

var Ranks = []string{"Private", "Corporal", "Sergeant", "Lieutenant", "Captain", "Major", "Colonel", "General"}

var Departments = []string{"Operations", "Logistics", "Training", "Maintenance", "Intelligence", "Medical"}

var PurchaseCategories = []string{"Weapons", "Vehicles", "Communications", "Medical", "Protective", "Office Supplies", "Other"}

// EquipmentTypes allows the empty string: an assignment may carry no equipment.
var EquipmentTypes = []string{"", "Weapons", "Vehicles", "Communications", "Medical", "Protective", "Tools", "Other"}

var ExpenditureCategories = []string{"Equipment", "Training", "Maintenance", "Operations", "Personnel", "Medical", "Other"}

var PaymentMethods = []string{"Cash", "Bank Transfer", "Credit Card", "Other"}

var TransportMethods = []string{"Ground Transport", "Air Transport", "Naval Transport", "Personnel Carry"}

// Status values.
const (
	StatusPending    = "Pending"
	StatusApproved   = "Approved"
	StatusProcessing = "Processing"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
	StatusInTransit  = "In Transit"
	StatusCompleted  = "Completed"
	StatusActive     = "Active"
)

var (
	PurchaseStatuses   = []string{StatusPending, StatusApproved, StatusProcessing, StatusDelivered, StatusCancelled}
	TransferStatuses   = []string{StatusPending, StatusInTransit, StatusCompleted, StatusCancelled}
	AssignmentStatuses = []string{StatusActive, StatusCompleted, StatusPending, StatusCancelled}
)

const (
	DefaultTransferReason  = "Equipment transfer"
	DefaultTransportMethod = "Ground Transport"
)

// Contains reports whether v is one of values.
func Contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
