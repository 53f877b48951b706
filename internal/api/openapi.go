package api

import (
	"github.com/vamp-agent/vamp/internal/config"
	"github.com/vamp-agent/vamp/internal/evidence"
	"github.com/vamp-agent/vamp/pkg/openapi"
)

// buildSpec generates the serialized OpenAPI document served at
// /openapi.json.
func buildSpec(cfg *config.Config) ([]byte, error) {
	spec := openapi.NewSpec("VAMP API", cfg.Version)
	spec.SetDescription("Evidence collection orchestration service for virtual assessment portfolios.")
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"ScrapeRequest": {
			Type:     "object",
			Required: []string{"platform", "start_month", "start_year", "end_month", "end_year"},
			Properties: map[string]*openapi.Schema{
				"platform":        platformSchema(),
				"cookies":         {Type: "array", Items: openapi.SchemaRef("Cookie")},
				"start_month":     {Type: "integer", Minimum: ptr(1.0), Maximum: ptr(12.0)},
				"start_year":      {Type: "integer", Example: 2025},
				"end_month":       {Type: "integer", Minimum: ptr(1.0), Maximum: ptr(12.0)},
				"end_year":        {Type: "integer", Example: 2025},
				"include_filters": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"exclude_filters": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
		"Cookie": {
			Type:     "object",
			Required: []string{"name", "value"},
			Properties: map[string]*openapi.Schema{
				"name":     {Type: "string"},
				"value":    {Type: "string"},
				"domain":   {Type: "string"},
				"path":     {Type: "string"},
				"secure":   {Type: "boolean"},
				"httpOnly": {Type: "boolean"},
				"expires":  {Type: "number", Description: "Epoch seconds"},
			},
		},
		"Evidence": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":            {Type: "string"},
				"platform":      platformSchema(),
				"title":         {Type: "string"},
				"description":   {Type: "string"},
				"content":       {Type: "string"},
				"created_date":  {Type: "string", Format: "date-time"},
				"modified_date": {Type: "string", Format: "date-time"},
				"url":           {Type: "string"},
				"status":        {Type: "string", Enum: []any{"collected", "filtered", "classified", "archived"}},
				"metadata":      {Type: "object"},
			},
		},
		"ScrapeResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"platform":     platformSchema(),
				"total_items":  {Type: "integer"},
				"items":        {Type: "array", Items: openapi.SchemaRef("Evidence")},
				"errors":       {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"generated_at": {Type: "string", Format: "date-time"},
			},
		},
		"BatchRequest": {
			Type:     "object",
			Required: []string{"platforms", "start_month", "start_year", "end_month", "end_year"},
			Properties: map[string]*openapi.Schema{
				"platforms":       {Type: "array", Items: platformSchema()},
				"cookies":         {Type: "array", Items: openapi.SchemaRef("Cookie")},
				"start_month":     {Type: "integer", Minimum: ptr(1.0), Maximum: ptr(12.0)},
				"start_year":      {Type: "integer"},
				"end_month":       {Type: "integer", Minimum: ptr(1.0), Maximum: ptr(12.0)},
				"end_year":        {Type: "integer"},
				"include_filters": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"exclude_filters": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
		"Scan": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"scan_id":        {Type: "string", Format: "uuid"},
				"platform":       platformSchema(),
				"status":         {Type: "string", Enum: []any{"pending", "running", "completed", "failed"}},
				"created_at":     {Type: "string", Format: "date-time"},
				"completed_at":   {Type: "string", Format: "date-time"},
				"evidence_count": {Type: "integer"},
				"errors":         {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
	})

	spec.Paths["/scrape"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Run a synchronous collection",
			Tags:        []string{"scrape"},
			RequestBody: openapi.RequestBodyJSON("ScrapeRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Collection result", "ScrapeResponse"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/scrape/batch"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Run collections for several platforms",
			Tags:        []string{"scrape"},
			RequestBody: openapi.RequestBodyJSON("BatchRequest", true),
			Responses: map[int]*openapi.Response{
				200: {Description: "Aggregated per-platform results"},
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/scrape/async"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Start a background collection",
			Tags:        []string{"scrape"},
			RequestBody: openapi.RequestBodyJSON("ScrapeRequest", true),
			Responses: map[int]*openapi.Response{
				202: openapi.ResponseJSON("Scan handle", "Scan"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/scans"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List scan handles",
			Tags:    []string{"scans"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("page", "integer", "Page number", false),
				openapi.QueryParam("page_size", "integer", "Results per page", false),
			},
			Responses: map[int]*openapi.Response{
				200: {Description: "Paginated scan handles"},
			},
		},
	}
	spec.Paths["/scans/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a scan handle",
			Tags:       []string{"scans"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Scan identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Scan handle", "Scan"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/credentials/{service}"] = &openapi.PathItem{
		Put: &openapi.Operation{
			Summary:    "Store service credentials",
			Tags:       []string{"credentials"},
			Parameters: []*openapi.Parameter{serviceParam()},
			Responses: map[int]*openapi.Response{
				200: {Description: "Stored"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Get: &openapi.Operation{
			Summary:    "Report credential presence",
			Tags:       []string{"credentials"},
			Parameters: []*openapi.Parameter{serviceParam()},
			Responses: map[int]*openapi.Response{
				200: {Description: "Credential status"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete service credentials",
			Tags:       []string{"credentials"},
			Parameters: []*openapi.Parameter{serviceParam()},
			Responses: map[int]*openapi.Response{
				200: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/platforms"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List supported platforms",
			Tags:    []string{"platforms"},
			Responses: map[int]*openapi.Response{
				200: {Description: "Platform descriptors"},
			},
		},
	}

	return openapi.MarshalJSON(spec)
}

func platformSchema() *openapi.Schema {
	platforms := evidence.Platforms()
	ids := make([]any, len(platforms))
	for i, p := range platforms {
		ids[i] = string(p.ID)
	}
	return &openapi.Schema{Type: "string", Enum: ids}
}

func serviceParam() *openapi.Parameter {
	return &openapi.Parameter{
		Name:        "service",
		In:          "path",
		Required:    true,
		Description: "Platform service name",
		Schema:      &openapi.Schema{Type: "string"},
	}
}

func ptr(f float64) *float64 {
	return &f
}
