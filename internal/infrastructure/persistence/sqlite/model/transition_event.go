package model

type TransitionEvent struct {
	EventID      uint64 `gorm:"column:event_id;primaryKey;autoIncrement"`
	ArtifactName string `gorm:"column:artifact_name;type:text;not null;index"`
	FromStatus   string `gorm:"column:from_status;type:text;not null"`
	ToStatus     string `gorm:"column:to_status;type:text;not null"`
	Action       string `gorm:"column:action;type:text;not null"`
	ActorID      string `gorm:"column:actor_id;type:text;not null;default:''"`
	ActorName    string `gorm:"column:actor_name;type:text;not null;default:''"`
	CreatedAt    string `gorm:"column:created_at;type:text;not null;index"`
}

func (TransitionEvent) TableName() string {
	return "transition_events"
}
