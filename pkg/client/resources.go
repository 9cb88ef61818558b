package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jordanlanch/realtycrm/pkg/models"
)

const (
	leadsPath      = "/leads"
	propertiesPath = "/properties"
	dealsPath      = "/deals"
	tasksPath      = "/tasks"
	activitiesPath = "/activities"
	dashboardPath  = "/dashboard"
)

type params url.Values

func (p params) set(key, v string) {
	if v != "" {
		url.Values(p).Set(key, v)
	}
}

func (p params) setInt(key string, v int) {
	if v > 0 {
		url.Values(p).Set(key, strconv.Itoa(v))
	}
}

func (p params) setFloat(key string, v float64) {
	if v > 0 {
		url.Values(p).Set(key, strconv.FormatFloat(v, 'f', -1, 64))
	}
}

// Leads

// ListLeads returns a page of leads
func (c *Client) ListLeads(ctx context.Context, f models.LeadFilter) (*models.ListResponse[models.Lead], error) {
	q := params{}
	q.set("status", f.Status)
	q.set("assigned_to", f.AssignedTo)
	q.set("q", f.Q)
	q.setInt("limit", f.Limit)
	q.setInt("offset", f.Offset)
	return get[*models.ListResponse[models.Lead]](ctx, c, leadsPath, url.Values(q))
}

// GetLead returns one lead
func (c *Client) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return get[*models.Lead](ctx, c, leadsPath+"/"+url.PathEscape(id), nil)
}

// CreateLead creates a lead
func (c *Client) CreateLead(ctx context.Context, req models.CreateLeadRequest) (*models.Lead, error) {
	var lead models.Lead
	if err := c.write(ctx, http.MethodPost, leadsPath, req, &lead); err != nil {
		return nil, err
	}
	c.invalidate(leadsPath, "/pipeline/lead", dashboardPath)
	return &lead, nil
}

// UpdateLead applies a partial update to a lead
func (c *Client) UpdateLead(ctx context.Context, id string, req models.UpdateLeadRequest) (*models.Lead, error) {
	var lead models.Lead
	if err := c.write(ctx, http.MethodPatch, leadsPath+"/"+url.PathEscape(id), req, &lead); err != nil {
		return nil, err
	}
	c.invalidate(leadsPath, "/pipeline/lead")
	return &lead, nil
}

// Properties

// ListProperties returns a page of properties
func (c *Client) ListProperties(ctx context.Context, f models.PropertyFilter) (*models.ListResponse[models.Property], error) {
	q := params{}
	q.set("status", f.Status)
	q.set("city", f.City)
	q.set("property_type", f.PropertyType)
	q.setFloat("min_price", f.MinPrice)
	q.setFloat("max_price", f.MaxPrice)
	q.setInt("limit", f.Limit)
	q.setInt("offset", f.Offset)
	return get[*models.ListResponse[models.Property]](ctx, c, propertiesPath, url.Values(q))
}

// GetProperty returns one property
func (c *Client) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	return get[*models.Property](ctx, c, propertiesPath+"/"+url.PathEscape(id), nil)
}

// CreateProperty creates a property
func (c *Client) CreateProperty(ctx context.Context, req models.CreatePropertyRequest) (*models.Property, error) {
	var p models.Property
	if err := c.write(ctx, http.MethodPost, propertiesPath, req, &p); err != nil {
		return nil, err
	}
	c.invalidate(propertiesPath, "/pipeline/property", dashboardPath)
	return &p, nil
}

// UpdateProperty applies a partial update to a property
func (c *Client) UpdateProperty(ctx context.Context, id string, req models.UpdatePropertyRequest) (*models.Property, error) {
	var p models.Property
	if err := c.write(ctx, http.MethodPatch, propertiesPath+"/"+url.PathEscape(id), req, &p); err != nil {
		return nil, err
	}
	c.invalidate(propertiesPath, "/pipeline/property")
	return &p, nil
}

// UploadPropertyImage attaches an image to a property and returns the
// updated property
func (c *Client) UploadPropertyImage(ctx context.Context, id, filename string, image io.Reader) (*models.Property, error) {
	path := propertiesPath + "/" + url.PathEscape(id) + "/images"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, failure(http.MethodPost, path, err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, failure(http.MethodPost, path, fmt.Errorf("reading image: %w", err))
	}
	if err := mw.Close(); err != nil {
		return nil, failure(http.MethodPost, path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, failure(http.MethodPost, path, err)
	}
	var p models.Property
	if err := c.send(context.WithoutCancel(ctx), http.MethodPost, path, nil, &buf, mw.FormDataContentType(), &p); err != nil {
		return nil, err
	}
	c.invalidate(propertiesPath, "/pipeline/property")
	return &p, nil
}

// Deals

// ListDeals returns a page of deals
func (c *Client) ListDeals(ctx context.Context, f models.DealFilter) (*models.ListResponse[models.Deal], error) {
	q := params{}
	q.set("status", f.Status)
	q.set("lead_id", f.LeadID)
	q.set("property_id", f.PropertyID)
	q.setInt("limit", f.Limit)
	q.setInt("offset", f.Offset)
	return get[*models.ListResponse[models.Deal]](ctx, c, dealsPath, url.Values(q))
}

// GetDeal returns one deal
func (c *Client) GetDeal(ctx context.Context, id string) (*models.Deal, error) {
	return get[*models.Deal](ctx, c, dealsPath+"/"+url.PathEscape(id), nil)
}

// CreateDeal creates a deal between an existing lead and property
func (c *Client) CreateDeal(ctx context.Context, req models.CreateDealRequest) (*models.Deal, error) {
	var d models.Deal
	if err := c.write(ctx, http.MethodPost, dealsPath, req, &d); err != nil {
		return nil, err
	}
	c.invalidate(dealsPath, "/pipeline/deal", dashboardPath)
	return &d, nil
}

// UpdateDeal applies a partial update to a deal
func (c *Client) UpdateDeal(ctx context.Context, id string, req models.UpdateDealRequest) (*models.Deal, error) {
	var d models.Deal
	if err := c.write(ctx, http.MethodPatch, dealsPath+"/"+url.PathEscape(id), req, &d); err != nil {
		return nil, err
	}
	c.invalidate(dealsPath, "/pipeline/deal")
	return &d, nil
}

// Tasks

// ListTasks returns a page of tasks
func (c *Client) ListTasks(ctx context.Context, f models.TaskFilter) (*models.ListResponse[models.Task], error) {
	q := params{}
	q.set("status", f.Status)
	q.set("assigned_to", f.AssignedTo)
	q.set("lead_id", f.LeadID)
	q.set("deal_id", f.DealID)
	if f.DueBefore != nil {
		q.set("due_before", f.DueBefore.UTC().Format(time.RFC3339))
	}
	q.setInt("limit", f.Limit)
	q.setInt("offset", f.Offset)
	return get[*models.ListResponse[models.Task]](ctx, c, tasksPath, url.Values(q))
}

// GetTask returns one task
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return get[*models.Task](ctx, c, tasksPath+"/"+url.PathEscape(id), nil)
}

// CreateTask creates a task
func (c *Client) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	var t models.Task
	if err := c.write(ctx, http.MethodPost, tasksPath, req, &t); err != nil {
		return nil, err
	}
	c.invalidate(tasksPath, dashboardPath)
	return &t, nil
}

// UpdateTask applies a partial update to a task
func (c *Client) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	var t models.Task
	if err := c.write(ctx, http.MethodPatch, tasksPath+"/"+url.PathEscape(id), req, &t); err != nil {
		return nil, err
	}
	c.invalidate(tasksPath)
	return &t, nil
}

// UpdateTaskStatus changes a task's status
func (c *Client) UpdateTaskStatus(ctx context.Context, id, status string) (*models.Task, error) {
	var t models.Task
	path := tasksPath + "/" + url.PathEscape(id) + "/status"
	if err := c.write(ctx, http.MethodPatch, path, models.UpdateTaskStatusRequest{Status: status}, &t); err != nil {
		return nil, err
	}
	c.invalidate(tasksPath, dashboardPath)
	return &t, nil
}

// Activities

// ListActivities returns the activity feed, optionally scoped to one record
func (c *Client) ListActivities(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error) {
	q := params{}
	q.set("lead_id", f.LeadID)
	q.set("property_id", f.PropertyID)
	q.set("deal_id", f.DealID)
	q.setInt("limit", f.Limit)
	return get[[]models.Activity](ctx, c, activitiesPath, url.Values(q))
}

// LogActivity records a manual activity
func (c *Client) LogActivity(ctx context.Context, req models.CreateActivityRequest) (*models.Activity, error) {
	var a models.Activity
	if err := c.write(ctx, http.MethodPost, activitiesPath, req, &a); err != nil {
		return nil, err
	}
	c.invalidate(activitiesPath)
	return &a, nil
}

// Matches

func matchesPath(leadID string) string {
	return leadsPath + "/" + url.PathEscape(leadID) + "/matches"
}

// ListMatches returns the property suggestions of a lead
func (c *Client) ListMatches(ctx context.Context, leadID string) ([]models.LeadPropertyMatch, error) {
	return get[[]models.LeadPropertyMatch](ctx, c, matchesPath(leadID), nil)
}

// RegenerateMatches recomputes the suggestions of a lead
func (c *Client) RegenerateMatches(ctx context.Context, leadID string) ([]models.LeadPropertyMatch, error) {
	var matches []models.LeadPropertyMatch
	if err := c.write(ctx, http.MethodPost, matchesPath(leadID)+"/regenerate", nil, &matches); err != nil {
		return nil, err
	}
	c.invalidate(matchesPath(leadID), notificationsPath)
	return matches, nil
}

// UpdateMatchStatus records what the agent did with a suggestion
func (c *Client) UpdateMatchStatus(ctx context.Context, id, status string) (*models.LeadPropertyMatch, error) {
	var m models.LeadPropertyMatch
	path := "/matches/" + url.PathEscape(id) + "/status"
	if err := c.write(ctx, http.MethodPatch, path, models.UpdateMatchStatusRequest{Status: status}, &m); err != nil {
		return nil, err
	}
	c.invalidate(matchesPath(m.LeadID))
	return &m, nil
}

// DashboardSummary returns the per-status counts for the dashboard
func (c *Client) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	return get[*models.DashboardSummary](ctx, c, dashboardPath+"/summary", nil)
}

// Chat sends one message to the assistant and returns its reply verbatim
func (c *Client) Chat(ctx context.Context, message string, chatCtx models.ChatContext) (string, error) {
	var resp models.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/ai/chat", nil, models.ChatRequest{Message: message, Context: chatCtx}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
