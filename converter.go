package main

import (
	"fmt"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"time"

	"go-pkpass/images"
	"go-pkpass/models"
	"go-pkpass/pkpass"
)

const (
	iconDevicePixelRatio = 2
	iconMaxSize          = 64
)

var imageNames = []string{
	pkpass.ImageIcon,
	pkpass.ImageLogo,
	pkpass.ImageStrip,
	pkpass.ImageBackground,
	pkpass.ImageFooter,
	pkpass.ImageThumbnail,
}

type SummaryConverter interface {
	ToPassSummary(id string, doc *pkpass.Document) models.PassSummary
}

type PassSummaryConverterImpl struct{}

func (PassSummaryConverterImpl) ToPassSummary(id string, doc *pkpass.Document) models.PassSummary {
	summary := models.PassSummary{
		ID:                 id,
		Type:               doc.Type().String(),
		Description:        doc.Description(),
		OrganizationName:   doc.OrganizationName(),
		PassTypeIdentifier: doc.PassTypeIdentifier(),
		SerialNumber:       doc.SerialNumber(),
		GroupingIdentifier: doc.GroupingIdentifier(),
		LogoText:           doc.LogoText(),
		Voided:             doc.IsVoided(),
		ExpirationDate:     optionalTime(doc.ExpirationDate()),
		RelevantDate:       optionalTime(doc.RelevantDate()),
		MaximumDistance:    doc.MaximumDistance(),
		BackgroundColor:    hexColor(doc.BackgroundColor()),
		ForegroundColor:    hexColor(doc.ForegroundColor()),
		LabelColor:         hexColor(doc.LabelColor()),
		Images:             []string{},
		HeaderFields:       toFieldViews(doc.HeaderFields()),
		PrimaryFields:      toFieldViews(doc.PrimaryFields()),
		SecondaryFields:    toFieldViews(doc.SecondaryFields()),
		AuxiliaryFields:    toFieldViews(doc.AuxiliaryFields()),
		BackFields:         toFieldViews(doc.BackFields()),
		Barcodes:           toBarcodeViews(doc.Barcodes()),
		Locations:          toLocationViews(doc.Locations()),
	}

	if bp, ok := doc.BoardingPass(); ok {
		summary.TransitType = bp.TransitType().String()
	}
	if u := doc.PassUpdateURL(); u != nil {
		summary.PassUpdateURL = u.String()
	}

	for _, name := range imageNames {
		if doc.HasImage(name) {
			summary.Images = append(summary.Images, name)
		}
	}

	if icon := doc.Icon(iconDevicePixelRatio); icon != nil {
		encoded, err := images.EncodePNGBase64(icon, iconMaxSize, iconMaxSize, png.BestSpeed)
		if err != nil {
			slog.Warn("Failed to encode pass icon", "id", id, "error", err)
		} else {
			summary.Icon = encoded
		}
	}

	return summary
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func optionalFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func hexColor(c color.NRGBA, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func toFieldViews(fields []pkpass.Field) []models.FieldView {
	views := make([]models.FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, models.FieldView{
			Key:           f.Key(),
			Label:         f.Label(),
			Kind:          f.Value().Kind.String(),
			Value:         f.ValueDisplayString(),
			ChangeMessage: f.ChangeMessage(),
			TextAlignment: f.TextAlignment().String(),
		})
	}
	return views
}

func toBarcodeViews(codes []pkpass.Barcode) []models.BarcodeView {
	views := make([]models.BarcodeView, 0, len(codes))
	for _, b := range codes {
		views = append(views, models.BarcodeView{
			Format:          b.Format().String(),
			Message:         b.Message(),
			MessageEncoding: b.MessageEncoding(),
			AltText:         b.AlternativeText(),
		})
	}
	return views
}

func toLocationViews(locs []pkpass.Location) []models.LocationView {
	views := make([]models.LocationView, 0, len(locs))
	for _, l := range locs {
		views = append(views, models.LocationView{
			Latitude:     optionalFloat(l.Latitude()),
			Longitude:    optionalFloat(l.Longitude()),
			Altitude:     optionalFloat(l.Altitude()),
			RelevantText: l.RelevantText(),
		})
	}
	return views
}
