package service

import (
	"context"
	"math/rand/v2"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// MinDetailsLength is the shortest property description accepted
const MinDetailsLength = 5

// ErrMsgDetailsTooShort is returned for descriptions below MinDetailsLength
const ErrMsgDetailsTooShort = "الرجاء إدخال تفاصيل أكثر"

var adTemplates = []string{
	" فرصة ذهبية بمدينة السادات! ✨\n\n{details}\n\nمميزات لا تفوت:\n✅ مساحة ممتازة وتقسيم ذكي\n✅ موقع استراتيجي في قلب الخدمات\n✅ أفضل استثمار لمستقبلك\n\n📞 للتواصـل والمعاينـة: 010xxxxxxx",
	"🔥 لقطة الموسم بالسادات 🔥\n\nمواصفات العقار: {details}\n\nليه تشتري العقار ده؟\n💎 تشطيب راقي جداً\n💎 فيو مفتوح ومتميز\n💎 تسهيلات في الدفع\n\n📌 بادر بالحجز الآن قبل فوات الأوان!\nللإتصال: 010xxxxxxx",
}

// GeneratorService writes marketing copy for a property from free-text details
type GeneratorService interface {
	Generate(ctx context.Context, details string) (string, error)
}

type generatorService struct {
	placeholderPattern *regexp.Regexp
	templates          []string
	delay              time.Duration
	pick               func(n int) int
}

// NewGeneratorService creates a generator that answers after delay
func NewGeneratorService(delay time.Duration) GeneratorService {
	return &generatorService{
		placeholderPattern: regexp.MustCompile(`\{details\}`),
		templates:          adTemplates,
		delay:              delay,
		pick:               rand.IntN,
	}
}

// Generate fills a randomly chosen template with details
func (s *generatorService) Generate(ctx context.Context, details string) (string, error) {
	if utf8.RuneCountInString(details) < MinDetailsLength {
		return "", models.ErrInvalidInput(ErrMsgDetailsTooShort)
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	template := s.templates[s.pick(len(s.templates))]

	// literal replacement, details may contain $ signs
	return s.placeholderPattern.ReplaceAllStringFunc(template, func(string) string {
		return details
	}), nil
}
