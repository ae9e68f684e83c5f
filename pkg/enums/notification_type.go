package enums

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeStageChange NotificationType = "stage_change"
	NotificationTypeAssignment  NotificationType = "assignment"
	NotificationTypeUrgent      NotificationType = "urgent"
	NotificationTypeImport      NotificationType = "import"
	NotificationTypeDispatch    NotificationType = "dispatch"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}
