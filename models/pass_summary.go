package models

import "time"

// PassSummary is the rendered view of a stored pass for one locale.
type PassSummary struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	TransitType        string     `json:"transit_type,omitempty"`
	Description        string     `json:"description"`
	OrganizationName   string     `json:"organization_name"`
	PassTypeIdentifier string     `json:"pass_type_identifier"`
	SerialNumber       string     `json:"serial_number"`
	GroupingIdentifier string     `json:"grouping_identifier,omitempty"`
	LogoText           string     `json:"logo_text,omitempty"`
	Voided             bool       `json:"voided"`
	ExpirationDate     *time.Time `json:"expiration_date,omitempty"`
	RelevantDate       *time.Time `json:"relevant_date,omitempty"`
	MaximumDistance    int        `json:"maximum_distance"`
	PassUpdateURL      string     `json:"pass_update_url,omitempty"`

	BackgroundColor string   `json:"background_color,omitempty"` // #rrggbb
	ForegroundColor string   `json:"foreground_color,omitempty"`
	LabelColor      string   `json:"label_color,omitempty"`
	Icon            string   `json:"icon,omitempty"` // base64 PNG
	Images          []string `json:"images"`

	HeaderFields    []FieldView `json:"header_fields"`
	PrimaryFields   []FieldView `json:"primary_fields"`
	SecondaryFields []FieldView `json:"secondary_fields"`
	AuxiliaryFields []FieldView `json:"auxiliary_fields"`
	BackFields      []FieldView `json:"back_fields"`

	Barcodes  []BarcodeView  `json:"barcodes"`
	Locations []LocationView `json:"locations"`
}

type FieldView struct {
	Key           string `json:"key"`
	Label         string `json:"label,omitempty"`
	Kind          string `json:"kind"`
	Value         string `json:"value"`
	ChangeMessage string `json:"change_message,omitempty"`
	TextAlignment string `json:"text_alignment"`
}

type BarcodeView struct {
	Format          string `json:"format"`
	Message         string `json:"message"`
	MessageEncoding string `json:"message_encoding"`
	AltText         string `json:"alt_text,omitempty"`
}

// LocationView leaves out coordinates the pass does not set.
type LocationView struct {
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Altitude     *float64 `json:"altitude,omitempty"`
	RelevantText string   `json:"relevant_text,omitempty"`
}
