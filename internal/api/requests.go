package api

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Upstream workflow tools send the same payload under many near-duplicate
// shapes (spreadsheet column names, nested variant arrays). All alias
// guessing happens here, once, at ingestion; everything downstream works with
// strict types.

type jsonObject map[string]any

func decodeObject(body io.Reader) (jsonObject, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var obj jsonObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return obj, nil
}

// firstVariant returns the first element of a nested "variants" array, if
// present.
func (o jsonObject) firstVariant() jsonObject {
	variants, ok := o["variants"].([]any)
	if !ok || len(variants) == 0 {
		return nil
	}
	v, _ := variants[0].(jsonObject)
	if v == nil {
		if m, ok := variants[0].(map[string]any); ok {
			v = jsonObject(m)
		}
	}
	return v
}

// pickString returns the first non-empty value among keys, stringified.
func (o jsonObject) pickString(keys ...string) string {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s != "" {
			return s
		}
	}
	return ""
}

// pickFloat returns the first present value among keys parsed as a float,
// tolerating thousands separators. A present but non-numeric value is an
// input error.
func (o jsonObject) pickFloat(keys ...string) (*float64, error) {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || v == nil {
			continue
		}

		switch t := v.(type) {
		case float64:
			f := t
			return &f, nil
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
			if s == "" {
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("field %q is not numeric: %q", k, t)
			}
			return &f, nil
		default:
			return nil, fmt.Errorf("field %q is not numeric", k)
		}
	}
	return nil, nil
}

type analyzeRequest struct {
	ProductID    string
	VariantID    string
	ProductTitle string
	ProductName  string
	Vintage      string
	Cost         *float64
	CurrentPrice *float64
}

func parseAnalyzeRequest(body io.Reader) (analyzeRequest, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return analyzeRequest{}, err
	}

	variant := obj.firstVariant()

	req := analyzeRequest{
		ProductID:    obj.pickString("product_id", "id", "Product_id"),
		ProductName:  obj.pickString("product_name", "name", "tên", "ten"),
		Vintage:      obj.pickString("vintage", "năm", "nam"),
		ProductTitle: obj.pickString("product_title", "title", "product_name", "Product_title", "Product_name"),
	}

	req.VariantID = obj.pickString("variant_id", "Variant_id")
	if req.VariantID == "" && variant != nil {
		req.VariantID = variant.pickString("variant_id", "id", "Variant_id")
	}

	req.Cost, err = obj.pickFloat("cost", "luc", "LUC", "cost_per_item", "Cost")
	if err != nil {
		return analyzeRequest{}, err
	}
	if req.Cost == nil && variant != nil {
		if req.Cost, err = variant.pickFloat("cost", "luc", "LUC", "cost_per_item", "Cost"); err != nil {
			return analyzeRequest{}, err
		}
	}

	req.CurrentPrice, err = obj.pickFloat("current_price", "price", "Price", "Price_current")
	if err != nil {
		return analyzeRequest{}, err
	}
	if req.CurrentPrice == nil && variant != nil {
		if req.CurrentPrice, err = variant.pickFloat("current_price", "price", "Price", "Price_current"); err != nil {
			return analyzeRequest{}, err
		}
	}

	if req.ProductTitle == "" && req.ProductName == "" {
		return analyzeRequest{}, fmt.Errorf("product_title or product_name is required")
	}
	if req.ProductTitle == "" {
		req.ProductTitle = req.ProductName
	}

	return req, nil
}

type calculateTargetRequest struct {
	ProductID       string
	VariantID       string
	ProductTitle    string
	CompetitorPrice *float64
	Cost            *float64
	CurrentPrice    *float64
	ManualPrice     *float64
}

func parseCalculateTargetRequest(body io.Reader) (calculateTargetRequest, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return calculateTargetRequest{}, err
	}

	req := calculateTargetRequest{
		ProductID:    obj.pickString("product_id", "id", "Product_id"),
		VariantID:    obj.pickString("variant_id", "Variant_id"),
		ProductTitle: obj.pickString("product_title", "title", "Title", "name"),
	}

	if req.CompetitorPrice, err = obj.pickFloat("competitor_price", "lowest_price"); err != nil {
		return calculateTargetRequest{}, err
	}
	if req.Cost, err = obj.pickFloat("cost", "cost_per_item", "Cost"); err != nil {
		return calculateTargetRequest{}, err
	}
	if req.CurrentPrice, err = obj.pickFloat("current_price", "old_price", "price"); err != nil {
		return calculateTargetRequest{}, err
	}
	if req.ManualPrice, err = obj.pickFloat("manual_price", "unit_price"); err != nil {
		return calculateTargetRequest{}, err
	}

	if req.CompetitorPrice == nil && req.Cost == nil && req.ManualPrice == nil {
		return calculateTargetRequest{}, fmt.Errorf("one of competitor_price, cost or manual_price is required")
	}

	return req, nil
}

type executeUpdateRequest struct {
	ProductID string
	VariantID string
	NewPrice  float64
}

func parseExecuteUpdateRequest(body io.Reader) (executeUpdateRequest, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return executeUpdateRequest{}, err
	}

	req := executeUpdateRequest{
		ProductID: obj.pickString("product_id", "id", "Product_id"),
	}

	req.VariantID = obj.pickString("variant_id", "Variant_id")
	if req.VariantID == "" {
		if variant := obj.firstVariant(); variant != nil {
			req.VariantID = variant.pickString("variant_id", "id", "Variant_id")
		}
	}

	price, err := obj.pickFloat("new_price", "recommended_price", "price_new")
	if err != nil {
		return executeUpdateRequest{}, err
	}

	switch {
	case req.ProductID == "":
		return executeUpdateRequest{}, fmt.Errorf("product_id is required")
	case req.VariantID == "":
		return executeUpdateRequest{}, fmt.Errorf("variant_id is required")
	case price == nil:
		return executeUpdateRequest{}, fmt.Errorf("new_price is required")
	}

	req.NewPrice = *price
	return req, nil
}

type batchPricingItem struct {
	ProductName string
	Vintage     string
	Cost        *float64
	ManualPrice *float64

	// Err carries a per-item input problem (e.g. non-numeric cost). It fails
	// that item only, never the whole batch.
	Err error
}

type batchPricingRequest struct {
	Items []batchPricingItem
}

func parseBatchPricingRequest(body io.Reader) (batchPricingRequest, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return batchPricingRequest{}, err
	}

	items, ok := obj["items"].([]any)
	if !ok {
		return batchPricingRequest{}, fmt.Errorf("items array is required")
	}

	req := batchPricingRequest{Items: make([]batchPricingItem, 0, len(items))}
	for i, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			return batchPricingRequest{}, fmt.Errorf("items[%d] is not an object", i)
		}
		o := jsonObject(m)

		item := batchPricingItem{
			ProductName: o.pickString("product_name", "name", "Product_name"),
			Vintage:     o.pickString("vintage", "Vintage"),
		}
		item.Cost, item.Err = o.pickFloat("cost_per_item", "cost", "luc", "Cost")
		if item.Err == nil {
			item.ManualPrice, item.Err = o.pickFloat("manual_price", "unit_price")
		}
		if item.Err == nil && item.Cost == nil && item.ManualPrice == nil {
			item.Err = fmt.Errorf("cost_per_item is required")
		}

		req.Items = append(req.Items, item)
	}

	return req, nil
}
