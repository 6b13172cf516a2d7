package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deliverus/api/internal/database"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// recordKey strips an optional "table:" prefix so the remainder can be passed
// to type::thing(table, key). IDs of any other table stay as opaque keys and
// simply never match.
func recordKey(table, id string) string {
	key := strings.TrimPrefix(id, table+":")
	key = strings.TrimPrefix(key, "⟨")
	key = strings.TrimSuffix(key, "⟩")
	return key
}

// convertSurrealID renders a SurrealDB record ID as "table:key"
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		// {"tb": "schedule", "id": "xxx"} or {"tb": ..., "id": {"String": "xxx"}}
		tb, _ := v["tb"].(string)
		idPart := ""
		if idVal, ok := v["id"]; ok {
			idPart = extractIDValue(idVal)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		return idPart
	}
	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	case time.Time:
		return v
	case models.CustomDateTime:
		return v.Time
	case *models.CustomDateTime:
		if v != nil {
			return v.Time
		}
	}
	return time.Time{}
}

// firstRecord unwraps the {status, result} envelope down to one record map.
func firstRecord(result interface{}) (map[string]interface{}, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}
	if list, ok := result.([]interface{}); ok {
		if len(list) == 0 {
			return nil, database.ErrNotFound
		}
		result = list[0]
	}
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	if inner, ok := data["result"]; ok {
		if _, hasStatus := data["status"]; hasStatus {
			return firstRecord(inner)
		}
	}
	return data, nil
}

// allRecords flattens every statement result into record maps.
func allRecords(results []interface{}) []map[string]interface{} {
	records := make([]map[string]interface{}, 0)
	for _, res := range results {
		resp, ok := res.(map[string]interface{})
		if !ok {
			continue
		}
		if _, hasStatus := resp["status"]; !hasStatus {
			records = append(records, resp)
			continue
		}
		items, ok := resp["result"].([]interface{})
		if !ok {
			continue
		}
		for _, item := range items {
			if data, ok := item.(map[string]interface{}); ok {
				records = append(records, data)
			}
		}
	}
	return records
}

type createdRecord struct {
	ID        string
	CreatedOn time.Time
	UpdatedOn time.Time
}

func extractCreatedRecord(result []interface{}) (*createdRecord, error) {
	if len(result) == 0 {
		return nil, errors.New("no result returned")
	}

	data, err := firstRecord(result[len(result)-1])
	if err != nil {
		return nil, err
	}

	return &createdRecord{
		ID:        convertSurrealID(data["id"]),
		CreatedOn: getTime(data, "created_on"),
		UpdatedOn: getTime(data, "updated_on"),
	}, nil
}
