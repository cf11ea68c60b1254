package mongodb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qingest/internal/question"
)

// toDocument converts a record into an ordered BSON document. Keys are copied
// verbatim, so "$"-prefixed keys inside free-form fields stay plain
// subdocument keys. Integers become int32 or int64 and other numbers double.
func toDocument(record question.Record) (bson.D, error) {
	decoder := json.NewDecoder(bytes.NewReader(record.Raw))
	decoder.UseNumber()
	value, err := decodeJSONValue(decoder)
	if err != nil {
		return nil, err
	}
	doc, ok := value.(bson.D)
	if !ok {
		return nil, fmt.Errorf("record is %T, not an object", value)
	}
	return doc, nil
}

func decodeJSONValue(decoder *json.Decoder) (interface{}, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	switch v := token.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeJSONObject(decoder)
		case '[':
			return decodeJSONArray(decoder)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v)
	case json.Number:
		return bsonNumber(v)
	default:
		// string, bool or nil
		return v, nil
	}
}

func decodeJSONObject(decoder *json.Decoder) (bson.D, error) {
	doc := bson.D{}
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T", token)
		}
		value, err := decodeJSONValue(decoder)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		doc = append(doc, bson.E{Key: key, Value: value})
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeJSONArray(decoder *json.Decoder) (bson.A, error) {
	arr := bson.A{}
	for decoder.More() {
		value, err := decodeJSONValue(decoder)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func bsonNumber(number json.Number) (interface{}, error) {
	if i, err := number.Int64(); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
		return i, nil
	}
	f, err := number.Float64()
	if err != nil {
		return nil, fmt.Errorf("number %s: %w", number, err)
	}
	return f, nil
}

func formatIDs(ids []interface{}) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		switch v := id.(type) {
		case primitive.ObjectID:
			out = append(out, v.Hex())
		case string:
			out = append(out, v)
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}
