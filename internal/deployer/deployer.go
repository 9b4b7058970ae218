// internal/deployer/deployer.go
//
// Deployment gateway.
//
// Context
// -------
// Promotes a design version to a public URL through the v0 deployments API
// and reports on it afterwards.  Two upstream behaviours exist in the wild,
// selected by VersionPolicy:
//
//   - PolicyResolve (default): a missing version id is resolved from the
//     chat's latest version.  Status and delete are supported.
//   - PolicyExplicit: the caller must pass a version id.  This variant fits
//     an upstream that cannot list versions and advertises neither status nor
//     delete, so the coordinator checks Capabilities before calling them.
//
// Notes
// -----
//   - Create always yields status pending with CreatedAt = now, and fails
//     when the API answers without a deployment id.
//   - Status returns (nil, nil) when the deployment is unknown upstream.
//   - Delete never returns an error; failures are logged and reported false.
//   - Oxford commas, two spaces after periods.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/record"
	"github.com/yanizio/pagesmith/internal/upstream"
)

// VersionPolicy selects how Create obtains a version id.
type VersionPolicy string

const (
	PolicyResolve  VersionPolicy = "resolve"
	PolicyExplicit VersionPolicy = "explicit"
)

var (
	ErrNoVersion      = errors.New("no version found for chat")
	ErrMissingVersion = errors.New("version id is required")
)

// Capabilities advertises the optional calls a gateway supports.
type Capabilities struct {
	Status bool
	Delete bool
}

// Gateway is the contract the lifecycle coordinator depends on.
type Gateway interface {
	Create(ctx context.Context, chatID, versionID, projectID string) (*record.Deployment, error)
	Status(ctx context.Context, deploymentID string) (*record.Deployment, error)
	Delete(ctx context.Context, deploymentID string) bool
	Capabilities() Capabilities
}

// Doer is the slice of *upstream.Client the gateway uses.
type Doer interface {
	Do(ctx context.Context, call, method, path string, in, out any) error
}

// V0 implements Gateway over the v0 Platform API.
type V0 struct {
	api    Doer
	policy VersionPolicy
	log    *zap.SugaredLogger
	now    func() time.Time
}

var _ Gateway = (*V0)(nil)

// NewV0 returns a gateway.  An empty policy means PolicyResolve.
func NewV0(api Doer, policy VersionPolicy, log *zap.SugaredLogger) *V0 {
	if policy == "" {
		policy = PolicyResolve
	}
	if log == nil {
		log = zap.S()
	}
	return &V0{api: api, policy: policy, log: log, now: time.Now}
}

// Capabilities reports status and delete support for the configured policy.
func (g *V0) Capabilities() Capabilities {
	if g.policy == PolicyExplicit {
		return Capabilities{}
	}
	return Capabilities{Status: true, Delete: true}
}

type deploymentPayload struct {
	ID           string `json:"id"`
	WebURL       string `json:"webUrl"`
	APIURL       string `json:"apiUrl"`
	InspectorURL string `json:"inspectorUrl"`
	Status       string `json:"status"`
}

// Create deploys versionID of chatID.  projectID defaults to chatID.
func (g *V0) Create(ctx context.Context, chatID, versionID, projectID string) (*record.Deployment, error) {
	g.log.Infow("creating deployment",
		"chat_id", chatID, "version_id", versionID, "project_id", projectID, "policy", g.policy)

	if versionID == "" {
		if g.policy == PolicyExplicit {
			return nil, fmt.Errorf("create deployment: %w",
				upstream.Errorf("deployments.create", ErrMissingVersion, "version id is required"))
		}
		v, err := g.latestVersion(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("create deployment: %w", err)
		}
		versionID = v
		g.log.Infow("resolved latest version", "chat_id", chatID, "version_id", versionID)
	}
	if projectID == "" {
		projectID = chatID
	}

	in := map[string]string{
		"projectId": projectID,
		"chatId":    chatID,
		"versionId": versionID,
	}
	var out deploymentPayload
	if err := g.api.Do(ctx, "deployments.create", http.MethodPost, "/v1/deployments", in, &out); err != nil {
		return nil, fmt.Errorf("create deployment: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("create deployment: %w",
			upstream.Errorf("deployments.create", nil, "no deployment id returned"))
	}

	dep := &record.Deployment{
		ID:           out.ID,
		WebURL:       out.WebURL,
		APIURL:       out.APIURL,
		InspectorURL: out.InspectorURL,
		Status:       record.StatusPending,
		CreatedAt:    g.now(),
	}
	g.log.Infow("deployment created", "deployment_id", dep.ID, "web_url", dep.WebURL)
	return dep, nil
}

func (g *V0) latestVersion(ctx context.Context, chatID string) (string, error) {
	const call = "chats.get"
	var out struct {
		LatestVersion *struct {
			ID string `json:"id"`
		} `json:"latestVersion"`
	}
	if err := g.api.Do(ctx, call, http.MethodGet, "/v1/chats/"+url.PathEscape(chatID), nil, &out); err != nil {
		return "", err
	}
	if out.LatestVersion == nil || out.LatestVersion.ID == "" {
		return "", upstream.Errorf(call, ErrNoVersion, "no version found for chat %s", chatID)
	}
	return out.LatestVersion.ID, nil
}

// Status fetches the current state of a deployment.  CreatedAt is left zero
// because the API does not report it; LastCheckedAt is the time of this
// call.  Unknown deployments yield (nil, nil).
func (g *V0) Status(ctx context.Context, deploymentID string) (*record.Deployment, error) {
	if !g.Capabilities().Status {
		return nil, nil
	}
	var out deploymentPayload
	err := g.api.Do(ctx, "deployments.get", http.MethodGet,
		"/v1/deployments/"+url.PathEscape(deploymentID), nil, &out)
	if upstream.IsNotFound(err) {
		g.log.Infow("deployment not found upstream", "deployment_id", deploymentID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deployment status: %w", err)
	}

	status := record.Status(out.Status)
	if !status.Valid() {
		status = record.StatusPending
	}
	id := out.ID
	if id == "" {
		id = deploymentID
	}
	return &record.Deployment{
		ID:            id,
		WebURL:        out.WebURL,
		APIURL:        out.APIURL,
		InspectorURL:  out.InspectorURL,
		Status:        status,
		LastCheckedAt: g.now(),
	}, nil
}

// Delete removes a deployment upstream.  It reports false on any failure.
func (g *V0) Delete(ctx context.Context, deploymentID string) bool {
	if !g.Capabilities().Delete {
		return false
	}
	err := g.api.Do(ctx, "deployments.delete", http.MethodDelete,
		"/v1/deployments/"+url.PathEscape(deploymentID), nil, nil)
	if err != nil {
		g.log.Warnw("deployment delete failed", "deployment_id", deploymentID, "err", err)
		return false
	}
	g.log.Infow("deployment deleted", "deployment_id", deploymentID)
	return true
}
