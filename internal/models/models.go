package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type User struct {
	BaseModel
	Username string `json:"username" gorm:"uniqueIndex;size:100;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password string `json:"-" gorm:"size:255;not null"`
	Status   int    `json:"status" gorm:"default:1"` // 1:active, 0:inactive
}

type ActionType string

const (
	ActionNavigate ActionType = "navigate"
	ActionClick    ActionType = "click"
	ActionInput    ActionType = "input"
	ActionChange   ActionType = "change"
)

// MaxClickTextLength bounds the text captured from a clicked element.
const MaxClickTextLength = 50

// Action is one entry of a recorded log. Which optional fields are set
// depends on Type:
//
//	navigate: URL
//	click:    Selector, TagName, Text, Href (optional), URL
//	input:    Selector, Value, TagName, InputType
//	change:   Selector, Value, TagName
type Action struct {
	Type      ActionType `json:"type"`
	URL       string     `json:"url,omitempty"`
	Selector  string     `json:"selector,omitempty"`
	TagName   string     `json:"tagName,omitempty"`
	Text      string     `json:"text,omitempty"`
	Href      string     `json:"href,omitempty"`
	Value     string     `json:"value,omitempty"`
	InputType string     `json:"inputType,omitempty"`
	Timestamp int64      `json:"timestamp"` // unix milliseconds
}

// Recording is the persisted state of one recording session: the
// "recording active" flag and the frozen action log.
type Recording struct {
	BaseModel
	SessionID   string     `json:"session_id" gorm:"uniqueIndex;size:64;not null"`
	IsRecording bool       `json:"is_recording" gorm:"default:false"`
	StartURL    string     `json:"start_url" gorm:"size:2000"`
	Device      string     `json:"device" gorm:"size:100"`
	Actions     string     `json:"-" gorm:"type:longtext"` // JSON format Action array
	ActionCount int        `json:"action_count"`
	StartedAt   time.Time  `json:"started_at"`
	StoppedAt   *time.Time `json:"stopped_at"`
	UserID      uint       `json:"user_id"`
}

func (r *Recording) GetActions() ([]Action, error) {
	var actions []Action
	if r.Actions == "" {
		return actions, nil
	}
	err := json.Unmarshal([]byte(r.Actions), &actions)
	return actions, err
}

func (r *Recording) SetActions(actions []Action) error {
	if actions == nil {
		actions = []Action{}
	}
	data, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	r.Actions = string(data)
	r.ActionCount = len(actions)
	return nil
}
