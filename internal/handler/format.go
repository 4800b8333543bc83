package handler

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

var numberPrinter = message.NewPrinter(language.English)

// formatNumber groups thousands, e.g. 1250000 -> "1,250,000"
func formatNumber(v float64) string {
	return numberPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// formatMillions renders a value in millions with one decimal, e.g. "1.3M"
func formatMillions(v float64) string {
	return fmt.Sprintf("%.1fM", v/1_000_000)
}

var arabicWeekdays = [...]string{"الأحد", "الاثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة", "السبت"}

var arabicMonths = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// arabicDate formats t as "الجمعة، 14 مارس 2025"
func arabicDate(t time.Time) string {
	return fmt.Sprintf("%s، %d %s %d",
		arabicWeekdays[t.Weekday()], t.Day(), arabicMonths[t.Month()-1], t.Year())
}

func statusLabel(status string) string {
	if status == models.PropertyStatusAvailable {
		return "متاح"
	}
	return "مباع/مؤجر"
}

func typeLabel(typ string) string {
	if typ == models.PropertyTypeRent {
		return "إيجار"
	}
	return "بيع"
}

func interestLabel(interest string) string {
	switch interest {
	case models.InterestVilla:
		return "فيلا"
	case models.InterestLand:
		return "أرض"
	default:
		return "شقة"
	}
}

func leadLabel(status string) string {
	switch status {
	case models.LeadHot:
		return "مهتم جداً"
	case models.LeadCold:
		return "بارد"
	default:
		return "متوسط الاهتمام"
	}
}
