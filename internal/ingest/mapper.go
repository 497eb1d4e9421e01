package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/flowzz-ingest/pkg/db/models"
	"github.com/angelmondragon/flowzz-ingest/pkg/enums"
)

const (
	productURLBase = "https://flowzz.com"
	potencyUnit    = "%"
)

var (
	maxRating  = decimal.RequireFromString("99.9")
	maxPotency = decimal.RequireFromString("999.99")
)

// MapCatalog converts one raw listing item into a catalog row. It returns nil
// when the item is not an object or carries no usable id.
func MapCatalog(raw json.RawMessage, category enums.Category) *models.CatalogRecord {
	item, ok := decodeObject(raw)
	if !ok {
		return nil
	}
	id, ok := intValue(item["id"])
	if !ok || id <= 0 {
		return nil
	}

	record := &models.CatalogRecord{
		SourceID:       id,
		ProductURL:     fmt.Sprintf("%s/%s/%d", productURLBase, category, id),
		Name:           stringValue(item["name"]),
		Category:       category,
		Genetic:        stringValue(item["genetic"]),
		Cultivar:       stringValue(item["strain_name"]),
		Irradiation:    enums.IrradiationFromFlag(item["irradiated"]),
		Grower:         stringValue(item["producer_name"]),
		Origin:         stringValue(item["origin"]),
		Importer:       stringValue(item["importer"]),
		DeliveryStatus: stringValue(item["delivery_status"]),
	}

	record.Rating = decimalInRange(item["ratings_score"], 1, maxRating)
	if count, ok := intValue(item["ratings_count"]); ok && count >= 0 && count <= math.MaxInt32 {
		c := int(count)
		record.RatingCount = &c
	}

	record.THC = decimalInRange(item["thc"], 2, maxPotency)
	if record.THC.Valid {
		record.THCUnit = strPtr(potencyUnit)
	}
	record.CBD = decimalInRange(item["cbd"], 2, maxPotency)
	if record.CBD.Valid {
		record.CBDUnit = strPtr(potencyUnit)
	}

	return record
}

// MapVendor converts one raw vendor payload. It returns nil when no name can
// be found, since the name is the vendor's identity.
func MapVendor(raw json.RawMessage) *models.VendorRecord {
	item, ok := decodeObject(raw)
	if !ok {
		return nil
	}
	name := stringValue(item["vendor_name"])
	if name == nil {
		name = stringValue(item["name"])
	}
	if name == nil {
		return nil
	}

	record := &models.VendorRecord{
		Name:         *name,
		Address:      stringValue(item["address"]),
		Email:        stringValue(item["email"]),
		Phone:        stringValue(item["phone"]),
		Homepage:     stringValue(item["homepage"]),
		AveragePrice: stringValue(item["average_price"]),
		ProfileURL:   stringValue(item["profile_url"]),
	}
	if count, ok := intValue(item["products_count"]); ok && count >= 0 && count <= math.MaxInt32 {
		c := int(count)
		record.ProductCount = &c
	}
	return record
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var item map[string]any
	if err := dec.Decode(&item); err != nil || item == nil {
		return nil, false
	}
	return item, true
}

// stringValue returns a trimmed, non-empty string. Numbers are rendered as
// their literal text; anything else is absent.
func stringValue(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

func intValue(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func decimalValue(v any) (decimal.Decimal, bool) {
	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return decimal.Decimal{}, false
	}
	if text == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// decimalInRange rounds to the column scale and drops values outside [0, upper].
func decimalInRange(v any, places int32, upper decimal.Decimal) decimal.NullDecimal {
	d, ok := decimalValue(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	d = d.Round(places)
	if d.IsNegative() || d.GreaterThan(upper) {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func strPtr(s string) *string { return &s }
