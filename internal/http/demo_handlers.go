package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	stdhttp "net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"scango/app/internal/apperr"
	"scango/app/internal/demo"
)

const (
	productImageField = "productImage"
	formMemoryLimit   = 1 << 20
)

var errUnsupportedMediaType = apperr.Validation("Send demo pages as multipart/form-data or JSON.")

type slugInput struct {
	Slug string `path:"slug"`
}

type createDemoInput struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

type updateDemoInput struct {
	Slug string `path:"slug"`
	Body struct {
		_           struct{} `json:"-" additionalProperties:"true"`
		Title       *string  `json:"title,omitempty"`
		Slug        *string  `json:"slug,omitempty"`
		Type        *string  `json:"type,omitempty"`
		CuratorKey  *string  `json:"curatorKey,omitempty"`
		Content     *string  `json:"content,omitempty"`
		Description *string  `json:"description,omitempty"`
	}
}

type demoAudioInput struct {
	Slug string `path:"slug"`
	Body struct {
		Lang string `json:"lang,omitempty"`
	} `required:"false"`
}

// demoFields mirrors the form fields accepted on create.
type demoFields struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Type        string `json:"type"`
	CuratorKey  string `json:"curatorKey"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

func (s *Server) registerDemoRoutes() {
	bearer := s.requireAuth(s.bearer)

	huma.Register(s.api, jsonOperation("get-demo", stdhttp.MethodGet, "/api/demos/{slug}", "Fetch a demo page"), s.getDemoHandler)
	huma.Register(s.api, jsonOperation("list-demos", stdhttp.MethodGet, "/api/demos", "List demo pages"), s.listDemosHandler)

	create := jsonOperation("create-demo", stdhttp.MethodPost, "/api/demos", "Create a demo page", bearer)
	create.DefaultStatus = stdhttp.StatusCreated
	create.MaxBodyBytes = s.maxUpload + formMemoryLimit
	create.RequestBody = &huma.RequestBody{
		Description: "Demo page fields, optionally with a productImage file.",
		Content: map[string]*huma.MediaType{
			"multipart/form-data": {Schema: &huma.Schema{Type: "object"}},
			"application/json":    {Schema: &huma.Schema{Type: "object"}},
		},
	}
	huma.Register(s.api, create, s.createDemoHandler)

	huma.Register(s.api, jsonOperation("update-demo", stdhttp.MethodPut, "/api/demos/{slug}", "Update a demo page", bearer), s.updateDemoHandler)
	huma.Register(s.api, jsonOperation("delete-demo", stdhttp.MethodDelete, "/api/demos/{slug}", "Delete a demo page", bearer), s.deleteDemoHandler)

	audio := jsonOperation("generate-demo-audio", stdhttp.MethodPost, "/api/demos/{slug}/audio", "Synthesize demo page audio", bearer)
	huma.Register(s.api, audio, s.demoAudioHandler)
}

func (s *Server) getDemoHandler(ctx context.Context, input *slugInput) (*envelopeResponse[*demo.Page], error) {
	page, err := s.demos.Get(ctx, input.Slug)
	if err != nil {
		return nil, s.fail(ctx, err, "fetching demo page", logrus.Fields{"slug": input.Slug})
	}
	return ok200(page), nil
}

func (s *Server) listDemosHandler(ctx context.Context, _ *struct{}) (*envelopeResponse[[]demo.Page], error) {
	pages, err := s.demos.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "listing demo pages", nil)
	}
	return okList(pages), nil
}

func (s *Server) createDemoHandler(ctx context.Context, input *createDemoInput) (*envelopeResponse[*demo.Page], error) {
	fields, image, cleanup, err := parseDemoForm(input.ContentType, input.RawBody)
	if err != nil {
		return nil, s.fail(ctx, err, "parsing demo form", nil)
	}
	defer cleanup()

	page, err := s.demos.Create(ctx, demo.CreateInput{
		Title:       fields.Title,
		Slug:        fields.Slug,
		Type:        fields.Type,
		CuratorKey:  fields.CuratorKey,
		Content:     fields.Content,
		Description: fields.Description,
		Image:       image,
	})
	if err != nil {
		return nil, s.fail(ctx, err, "creating demo page", logrus.Fields{"slug": fields.Slug})
	}

	return ok(stdhttp.StatusCreated, "Demo page created successfully.", page), nil
}

func (s *Server) updateDemoHandler(ctx context.Context, input *updateDemoInput) (*envelopeResponse[*demo.Page], error) {
	page, err := s.demos.Update(ctx, input.Slug, demo.UpdateInput{
		Title:       input.Body.Title,
		Slug:        input.Body.Slug,
		Type:        input.Body.Type,
		CuratorKey:  input.Body.CuratorKey,
		Content:     input.Body.Content,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, s.fail(ctx, err, "updating demo page", logrus.Fields{"slug": input.Slug})
	}
	return ok(stdhttp.StatusOK, "Demo page updated successfully.", page), nil
}

func (s *Server) deleteDemoHandler(ctx context.Context, input *slugInput) (*messageResponse, error) {
	if err := s.demos.Delete(ctx, input.Slug); err != nil {
		return nil, s.fail(ctx, err, "deleting demo page", logrus.Fields{"slug": input.Slug})
	}
	return okMessage(stdhttp.StatusOK, "Demo page deleted successfully."), nil
}

func (s *Server) demoAudioHandler(ctx context.Context, input *demoAudioInput) (*envelopeResponse[*demo.Page], error) {
	page, err := s.demos.AttachAudio(ctx, input.Slug, input.Body.Lang)
	if err != nil {
		return nil, s.fail(ctx, err, "generating demo audio", logrus.Fields{"slug": input.Slug})
	}
	return ok(stdhttp.StatusOK, "Audio generated successfully.", page), nil
}

// parseDemoForm accepts multipart, urlencoded and JSON bodies. The returned
// cleanup releases temporary multipart files and must always be called.
func parseDemoForm(contentType string, raw []byte) (demoFields, io.Reader, func(), error) {
	noop := func() {}
	var fields demoFields

	mediaType := "application/json"
	var params map[string]string
	if strings.TrimSpace(contentType) != "" {
		parsed, parsedParams, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fields, nil, noop, errUnsupportedMediaType
		}
		mediaType, params = parsed, parsedParams
	}

	switch mediaType {
	case "multipart/form-data":
		boundary := params["boundary"]
		if boundary == "" {
			return fields, nil, noop, errUnsupportedMediaType
		}

		form, err := multipart.NewReader(bytes.NewReader(raw), boundary).ReadForm(formMemoryLimit)
		if err != nil {
			return fields, nil, noop, apperr.Validation("Malformed multipart form.")
		}
		cleanup := func() { _ = form.RemoveAll() }

		fields = demoFields{
			Title:       firstValue(form.Value, "title"),
			Slug:        firstValue(form.Value, "slug"),
			Type:        firstValue(form.Value, "type"),
			CuratorKey:  firstValue(form.Value, "curatorKey"),
			Content:     firstValue(form.Value, "content"),
			Description: firstValue(form.Value, "description"),
		}

		files := form.File[productImageField]
		if len(files) == 0 {
			return fields, nil, cleanup, nil
		}

		file, err := files[0].Open()
		if err != nil {
			cleanup()
			return fields, nil, noop, eris.Wrap(err, "opening uploaded product image")
		}
		return fields, file, func() {
			_ = file.Close()
			cleanup()
		}, nil

	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return fields, nil, noop, apperr.Validation("Malformed form body.")
		}
		fields = demoFields{
			Title:       values.Get("title"),
			Slug:        values.Get("slug"),
			Type:        values.Get("type"),
			CuratorKey:  values.Get("curatorKey"),
			Content:     values.Get("content"),
			Description: values.Get("description"),
		}
		return fields, nil, noop, nil

	case "application/json":
		if len(bytes.TrimSpace(raw)) == 0 {
			return fields, nil, noop, nil
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fields, nil, noop, apperr.Validation("Malformed JSON body.")
		}
		return fields, nil, noop, nil
	}

	return fields, nil, noop, errUnsupportedMediaType
}

func firstValue(values map[string][]string, key string) string {
	if entries := values[key]; len(entries) > 0 {
		return entries[0]
	}
	return ""
}
