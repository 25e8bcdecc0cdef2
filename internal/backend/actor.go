package backend

import "context"

// Actor is a backend connection bound to one admin token
type Actor struct {
	client *Client
	token  string
}

// Token returns the token the actor authenticates with
func (a *Actor) Token() string {
	return a.token
}

func (a *Actor) call(ctx context.Context, method string, in, out any) error {
	return a.client.call(ctx, method, callOpts{token: a.token}, in, out)
}

type isAdminResponse struct {
	IsAdmin bool `json:"is_admin"`
}

// IsCallerAdmin asks the backend whether the token's holder is an admin
func (a *Actor) IsCallerAdmin(ctx context.Context) (bool, error) {
	var resp isAdminResponse
	if err := a.call(ctx, "isCallerAdmin", nil, &resp); err != nil {
		return false, err
	}
	return resp.IsAdmin, nil
}

type listLoadsRequest struct {
	Status string `json:"status,omitempty"`
}

// ListLoads returns loads, optionally filtered by status
func (a *Actor) ListLoads(ctx context.Context, status string) ([]Load, error) {
	var loads []Load
	if err := a.call(ctx, "listLoads", listLoadsRequest{Status: status}, &loads); err != nil {
		return nil, err
	}
	return loads, nil
}

type idRequest struct {
	ID string `json:"id"`
}

// ApproveLoad moves a pending load to approved
func (a *Actor) ApproveLoad(ctx context.Context, id string) (*Load, error) {
	var load Load
	if err := a.call(ctx, "approveLoad", idRequest{ID: id}, &load); err != nil {
		return nil, err
	}
	return &load, nil
}

// ListTransporters returns all transporters
func (a *Actor) ListTransporters(ctx context.Context) ([]Transporter, error) {
	var transporters []Transporter
	if err := a.call(ctx, "listTransporters", nil, &transporters); err != nil {
		return nil, err
	}
	return transporters, nil
}

// VerifyTransporter marks a transporter as verified
func (a *Actor) VerifyTransporter(ctx context.Context, id string) (*Transporter, error) {
	var transporter Transporter
	if err := a.call(ctx, "verifyTransporter", idRequest{ID: id}, &transporter); err != nil {
		return nil, err
	}
	return &transporter, nil
}

// ListContactMessages returns contact form submissions, newest first
func (a *Actor) ListContactMessages(ctx context.Context) ([]ContactMessage, error) {
	var messages []ContactMessage
	if err := a.call(ctx, "listContactMessages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

type valueMessage struct {
	Value string `json:"value"`
}

// StatusText returns the site-wide status banner text
func (a *Actor) StatusText(ctx context.Context) (string, error) {
	var resp valueMessage
	if err := a.call(ctx, "getStatusText", nil, &resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

// SetStatusText replaces the site-wide status banner text
func (a *Actor) SetStatusText(ctx context.Context, text string) error {
	return a.call(ctx, "setStatusText", valueMessage{Value: text}, nil)
}

// APKLink returns the configured Android app download link
func (a *Actor) APKLink(ctx context.Context) (string, error) {
	var resp valueMessage
	if err := a.call(ctx, "getApkLink", nil, &resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

// SetAPKLink replaces the Android app download link
func (a *Actor) SetAPKLink(ctx context.Context, link string) error {
	return a.call(ctx, "setApkLink", valueMessage{Value: link}, nil)
}

// UpdateLiveLocation records the current position of a transporter
func (a *Actor) UpdateLiveLocation(ctx context.Context, loc Location) error {
	return a.call(ctx, "updateLiveLocation", loc, nil)
}
