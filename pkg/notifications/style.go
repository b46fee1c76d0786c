package notifications

// Kind is the severity a notification is presented with.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Style is how a notification is presented in the inbox and as a toast.
type Style struct {
	Kind Kind
	Icon string
}

// DefaultStyle applies when neither category nor type has an entry.
var DefaultStyle = Style{Kind: KindInfo, Icon: "bell"}

var categoryStyles = map[Category]Style{
	CategoryAchievement: {Kind: KindSuccess, Icon: "trophy"},
	CategoryWorkout:     {Kind: KindInfo, Icon: "dumbbell"},
	CategoryMeal:        {Kind: KindInfo, Icon: "utensils"},
	CategoryWarning:     {Kind: KindWarning, Icon: "alert-triangle"},
	CategoryAlert:       {Kind: KindError, Icon: "alert-circle"},
	CategorySystem:      {Kind: KindInfo, Icon: "settings"},
	CategoryInfo:        {Kind: KindInfo, Icon: "info"},
}

var typeStyles = map[Type]Style{
	TypeWorkoutReminder:  {Kind: KindInfo, Icon: "dumbbell"},
	TypeSleepReminder:    {Kind: KindInfo, Icon: "moon"},
	TypeGoalAchieved:     {Kind: KindSuccess, Icon: "trophy"},
	TypeWaterReminder:    {Kind: KindInfo, Icon: "droplet"},
	TypeActivityReminder: {Kind: KindInfo, Icon: "activity"},
	TypeSystem:           {Kind: KindInfo, Icon: "settings"},
}

// StyleFor resolves the style of n: category first, then type, then DefaultStyle.
func StyleFor(n Notification) Style {
	if s, ok := categoryStyles[n.Category]; ok {
		return s
	}
	if s, ok := typeStyles[n.Type]; ok {
		return s
	}
	return DefaultStyle
}
