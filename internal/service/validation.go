package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"butik/backend/internal/domain"
	"butik/backend/internal/validation"
)

// ValidationError maps json field names to messages.
type ValidationError = validation.Error

var placeholderImagePattern = regexp.MustCompile(`^product-[1-6]$`)

func normalizeProductInput(in domain.ProductInput) domain.ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Color = strings.TrimSpace(in.Color)
	in.Size = strings.TrimSpace(in.Size)
	in.Image = strings.TrimSpace(in.Image)
	return in
}

func (s *Service) validateProductInput(in domain.ProductInput) error {
	verr := &validation.Error{Fields: map[string]string{}}
	if err := s.validator.Struct(in); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	for field, amount := range map[string]decimal.Decimal{"buyPrice": in.BuyPrice, "sellPrice": in.SellPrice} {
		if _, failed := verr.Fields[field]; !failed && !domain.IsMoneyAmount(amount) {
			verr.Fields[field] = "must have at most 2 decimal places"
		}
	}
	if !isAcceptedImage(in.Image) {
		verr.Fields["image"] = "must be a data:image URI or product-1 to product-6"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// isAcceptedImage allows an empty value (placeholder assigned on create), a
// bundled placeholder id or an inline image data URI.
func isAcceptedImage(image string) bool {
	if image == "" {
		return true
	}
	return placeholderImagePattern.MatchString(image) || strings.HasPrefix(image, "data:image/")
}

func productFromInput(in domain.ProductInput) domain.Product {
	return domain.Product{
		Name:      in.Name,
		Category:  in.Category,
		BuyPrice:  in.BuyPrice,
		SellPrice: in.SellPrice,
		Quantity:  in.Quantity,
		Color:     in.Color,
		Size:      in.Size,
		Image:     in.Image,
	}
}
