package apify

import (
	"encoding/json"
	"fmt"
)

// PricingModel discriminates the PricingInfo variants.
type PricingModel string

const (
	PricingModelPayPerEvent         PricingModel = "PAY_PER_EVENT"
	PricingModelPricePerDatasetItem PricingModel = "PRICE_PER_DATASET_ITEM"
	PricingModelFlatPricePerMonth   PricingModel = "FLAT_PRICE_PER_MONTH"
	PricingModelFree                PricingModel = "FREE"
)

// PricingInfo is the pricing of the actor a run belongs to. The concrete
// type is one of *PayPerEventPricing, *PricePerDatasetItemPricing,
// *FlatPricePerMonthPricing or *FreePricing.
type PricingInfo interface {
	Model() PricingModel
	Common() *PricingCommon
	isPricingInfo()
}

// PricingCommon holds the fields shared by all pricing models.
type PricingCommon struct {
	PricingModel                PricingModel `json:"pricingModel"`
	ApifyMarginPercentage       *float64     `json:"apifyMarginPercentage,omitempty"`
	CreatedAt                   string       `json:"createdAt,omitempty"`
	StartedAt                   string       `json:"startedAt,omitempty"`
	NotifiedAboutFutureChangeAt string       `json:"notifiedAboutFutureChangeAt,omitempty"`
	NotifiedAboutChangeAt       string       `json:"notifiedAboutChangeAt,omitempty"`
	ReasonForChange             string       `json:"reasonForChange,omitempty"`
}

// Common returns the shared fields.
func (c *PricingCommon) Common() *PricingCommon { return c }

// ActorChargeEvent is one billable event of a pay-per-event actor.
type ActorChargeEvent struct {
	EventPriceUsd    *float64 `json:"eventPriceUsd,omitempty"`
	EventTitle       string   `json:"eventTitle,omitempty"`
	EventDescription string   `json:"eventDescription,omitempty"`
}

// PricingPerEvent lists the chargeable events by name.
type PricingPerEvent struct {
	ActorChargeEvents map[string]ActorChargeEvent `json:"actorChargeEvents,omitempty"`
}

// PayPerEventPricing charges per emitted event.
type PayPerEventPricing struct {
	PricingCommon
	PricingPerEvent          *PricingPerEvent `json:"pricingPerEvent,omitempty"`
	MinimalMaxTotalChargeUsd *float64         `json:"minimalMaxTotalChargeUsd,omitempty"`
}

// PricePerDatasetItemPricing charges per result item.
type PricePerDatasetItemPricing struct {
	PricingCommon
	UnitName        string   `json:"unitName,omitempty"`
	PricePerUnitUsd *float64 `json:"pricePerUnitUsd,omitempty"`
}

// FlatPricePerMonthPricing is a monthly rental.
type FlatPricePerMonthPricing struct {
	PricingCommon
	TrialMinutes    *float64 `json:"trialMinutes,omitempty"`
	PricePerUnitUsd *float64 `json:"pricePerUnitUsd,omitempty"`
}

// FreePricing has no charges.
type FreePricing struct {
	PricingCommon
}

func (PayPerEventPricing) Model() PricingModel         { return PricingModelPayPerEvent }
func (PricePerDatasetItemPricing) Model() PricingModel { return PricingModelPricePerDatasetItem }
func (FlatPricePerMonthPricing) Model() PricingModel   { return PricingModelFlatPricePerMonth }
func (FreePricing) Model() PricingModel                { return PricingModelFree }

func (PayPerEventPricing) isPricingInfo()         {}
func (PricePerDatasetItemPricing) isPricingInfo() {}
func (FlatPricePerMonthPricing) isPricingInfo()   {}
func (FreePricing) isPricingInfo()                {}

// MarshalJSON writes the variant with its pricingModel discriminant.
func (p PayPerEventPricing) MarshalJSON() ([]byte, error) {
	type alias PayPerEventPricing
	p.PricingModel = p.Model()
	return json.Marshal(alias(p))
}

// MarshalJSON writes the variant with its pricingModel discriminant.
func (p PricePerDatasetItemPricing) MarshalJSON() ([]byte, error) {
	type alias PricePerDatasetItemPricing
	p.PricingModel = p.Model()
	return json.Marshal(alias(p))
}

// MarshalJSON writes the variant with its pricingModel discriminant.
func (p FlatPricePerMonthPricing) MarshalJSON() ([]byte, error) {
	type alias FlatPricePerMonthPricing
	p.PricingModel = p.Model()
	return json.Marshal(alias(p))
}

// MarshalJSON writes the variant with its pricingModel discriminant.
func (p FreePricing) MarshalJSON() ([]byte, error) {
	type alias FreePricing
	p.PricingModel = p.Model()
	return json.Marshal(alias(p))
}

// DecodePricingInfo selects the variant named by the pricingModel field.
func DecodePricingInfo(data []byte) (PricingInfo, error) {
	var head struct {
		PricingModel PricingModel `json:"pricingModel"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode pricing info: %w", err)
	}

	var p PricingInfo
	switch head.PricingModel {
	case PricingModelPayPerEvent:
		p = &PayPerEventPricing{}
	case PricingModelPricePerDatasetItem:
		p = &PricePerDatasetItemPricing{}
	case PricingModelFlatPricePerMonth:
		p = &FlatPricePerMonthPricing{}
	case PricingModelFree:
		p = &FreePricing{}
	default:
		return nil, fmt.Errorf("decode pricing info: unknown pricing model %q", head.PricingModel)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode pricing info %s: %w", head.PricingModel, err)
	}
	return p, nil
}
