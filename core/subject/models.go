package subject

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

const DefaultColor = "#3b82f6"

type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
}

type NewSubject struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Code        string `json:"code" validate:"required,notblank,max=20"`
	Description string `json:"description"`
	Color       string `json:"color" validate:"omitempty,hexcolor7"`
	IsActive    *bool  `json:"isActive"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = strings.ToUpper(core.CleanString(ns.Code))
	ns.Description = core.CleanString(ns.Description)
	ns.Color = core.CleanString(ns.Color)
	return validate.Struct(ns)
}

// Defaults are the subjects every school starts with.
var Defaults = []NewSubject{
	{Name: "Mathématiques", Code: "MATH", Description: "Cours de mathématiques", Color: "#3b82f6"},
	{Name: "Français", Code: "FR", Description: "Cours de français", Color: "#ef4444"},
	{Name: "Histoire", Code: "HIST", Description: "Cours d'histoire", Color: "#f59e0b"},
	{Name: "Sciences", Code: "SCI", Description: "Cours de sciences", Color: "#10b981"},
	{Name: "Anglais", Code: "EN", Description: "Cours d'anglais", Color: "#8b5cf6"},
	{Name: "Éducation Physique", Code: "EP", Description: "Cours d'éducation physique", Color: "#f97316"},
}
