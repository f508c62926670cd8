package models

import "time"

type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

type Mode string

const (
	ModeIdea   Mode = "idea"
	ModeWrite  Mode = "write"
	ModeDesign Mode = "design"
)

type Message struct {
	Id        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

type Session struct {
	Id       string    `json:"id"`
	Mode     Mode      `json:"mode"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Messages []Message `json:"messages"`
	Favorite bool      `json:"favorite,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
}

type Snippet struct {
	Id      string    `json:"id"`
	Content string    `json:"content"`
	Tags    []string  `json:"tags"`
	Date    time.Time `json:"date"`
}

// Layer is the display record of a whiteboard layer. The pixels live in
// the canvas package.
type Layer struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
}

type Preferences struct {
	Visited             bool `json:"visited"`
	DarkMode            bool `json:"darkMode"`
	OnboardingCompleted bool `json:"onboardingCompleted"`
}

type Collaborator struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Active bool   `json:"active"`
}
