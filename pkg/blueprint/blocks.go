// Package blueprint provides deterministic, parameterized node factories and
// a linear workflow assembler. It is the non-AI generation path, used for
// fixtures and as an explicit fallback strategy.
package blueprint

import (
	"fmt"

	"github.com/flowforge/flowforge/pkg/models"
)

// Block is the output of one factory: the nodes it contributes plus the
// environment placeholders the operator must configure before activation.
type Block struct {
	Nodes []*models.GraphNode
	Env   map[string]string
}

func newNode(name, nodeType string, typeVersion float64, parameters map[string]any) *models.GraphNode {
	return &models.GraphNode{
		ID:          name,
		Name:        name,
		Type:        nodeType,
		TypeVersion: typeVersion,
		Parameters:  parameters,
	}
}

// WebhookTrigger returns a webhook trigger block listening on the given path.
func WebhookTrigger(name, path string) Block {
	return Block{
		Nodes: []*models.GraphNode{newNode(name, models.NodeTypeWebhook, 2, map[string]any{
			"path":         path,
			"httpMethod":   "POST",
			"responseMode": "onReceived",
			"responseCode": 200,
		})},
	}
}

// EmailSend returns an email block. Recipient and body come from operator
// configuration.
func EmailSend(name, subject string) Block {
	return Block{
		Nodes: []*models.GraphNode{newNode(name, models.NodeTypeEmailSend, 2.1, map[string]any{
			"to":      "{{EMAIL_RECIPIENT}}",
			"subject": subject,
			"text":    "{{EMAIL_BODY}}",
		})},
		Env: map[string]string{
			"EMAIL_RECIPIENT": "destination address for " + name,
			"EMAIL_BODY":      "message body template for " + name,
		},
	}
}

// SheetAppend returns a spreadsheet append block writing to a configured
// document.
func SheetAppend(name string, columns []string) Block {
	mapping := make(map[string]any, len(columns))
	for _, column := range columns {
		mapping[column] = fmt.Sprintf("{{SHEET_COLUMN_%s}}", column)
	}

	return Block{
		Nodes: []*models.GraphNode{newNode(name, models.NodeTypeSheets, 4, map[string]any{
			"operation":  "append",
			"documentId": "{{SHEET_DOCUMENT_ID}}",
			"sheetName":  "{{SHEET_NAME}}",
			"columns":    mapping,
		})},
		Env: map[string]string{
			"SHEET_DOCUMENT_ID": "spreadsheet document id for " + name,
			"SHEET_NAME":        "tab name for " + name,
		},
	}
}

// RecordUpsert returns a structured-record upsert block.
func RecordUpsert(name, table string) Block {
	return Block{
		Nodes: []*models.GraphNode{newNode(name, models.NodeTypeAirtable, 2, map[string]any{
			"operation": "upsert",
			"base":      "{{RECORD_BASE_ID}}",
			"table":     table,
		})},
		Env: map[string]string{
			"RECORD_BASE_ID": "record store base id for " + name,
		},
	}
}

// HTTPRequest returns an HTTP call block with the default retry policy
// already attached so assembled workflows pass validation unrepaired.
func HTTPRequest(name, method, url string) Block {
	return Block{
		Nodes: []*models.GraphNode{newNode(name, models.NodeTypeHTTPRequest, 4.2, map[string]any{
			"method":      method,
			"url":         url,
			"options":     map[string]any{},
			"retryOnFail": true,
			"maxRetries":  2,
		})},
	}
}

// FieldSet returns a set-fields transform block.
func FieldSet(name string, fields map[string]string) Block {
	assignments := make([]any, 0, len(fields))
	for field, value := range fields {
		assignments = append(assignments, map[string]any{
			"name":  field,
			"value": value,
			"type":  "string",
		})
	}

	return Block{
		Nodes: []*models.GraphNode{newNode(name, models.NodeTypeSet, 3.4, map[string]any{
			"assignments": map[string]any{"assignments": assignments},
		})},
	}
}
