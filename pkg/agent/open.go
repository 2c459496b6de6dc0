package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/morezero/interop-agent/pkg/match"
	"github.com/morezero/interop-agent/pkg/platform"
)

const openLogPrefix = "agent:open"

// splitQualifier splits "<appName>:<platformName>" into its parts. The
// trailing segment is the platform qualifier; the rest, rejoined, is the
// application name.
func splitQualifier(app string) (name, qualifier string) {
	idx := strings.LastIndex(app, ":")
	if idx < 0 {
		return app, ""
	}
	return app[:idx], app[idx+1:]
}

// Open resolves app to exactly one platform and invokes that platform's
// start-application method with the application name and optional context,
// returning the invocation's result payload.
func (a *DesktopAgent) Open(ctx context.Context, app string, c *platform.Context) (*platform.InvokeResult, error) {
	if app == "" {
		return nil, NewAgentError(CodeInvalidArgument, "app name is required")
	}

	name, qualifier := splitQualifier(app)
	if qualifier != "" {
		target, perr := a.platformByName(qualifier)
		if perr != nil {
			return nil, perr
		}
		res, err := target.Session.Invoke(ctx, target.StartAppMethod, OpenArgs{Application: name, Context: c})
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - start %q on %s failed: %v", openLogPrefix, name, target.Name, err))
			return nil, launchError(name, "")
		}
		return res, nil
	}

	target, appErr := a.resolveAppPlatform(ctx, name)
	if appErr != nil {
		return nil, appErr
	}
	res, err := target.Session.Invoke(ctx, target.StartAppMethod, OpenArgs{Application: name, Context: c})
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - start %q on %s failed: %v", openLogPrefix, name, target.Name, err))
		return nil, launchError(name, "")
	}
	return res, nil
}

// platformByName resolves an explicit platform qualifier. Platform names are
// unique by construction, so more than one match signals a configuration bug.
func (a *DesktopAgent) platformByName(name string) (*platform.Platform, *AgentError) {
	var found []*platform.Platform
	for _, p := range a.platforms {
		if p.Name == name {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 0:
		return nil, NewAgentError(CodePlatformNotFound, fmt.Sprintf("no platform named %q", name))
	case 1:
		return found[0], nil
	default:
		return nil, NewAgentError(CodePlatformAmbiguous, fmt.Sprintf("multiple platforms named %q", name))
	}
}

// resolveAppPlatform performs full discovery: every platform exposing a
// list-applications method is asked for its application list, and the app
// must be hosted by exactly one of them. The winner must additionally expose
// a start-application method.
func (a *DesktopAgent) resolveAppPlatform(ctx context.Context, app string) (*platform.Platform, *AgentError) {
	hosts := make([]bool, len(a.platforms))
	starters := make([]bool, len(a.platforms))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range a.platforms {
		i, p := i, p
		g.Go(func() error {
			methods, err := p.Session.DiscoverMethods(gctx)
			if err != nil {
				// A platform whose discovery fails cannot host the app.
				slog.Warn(fmt.Sprintf("%s - discovery on %s failed: %v", openLogPrefix, p.Name, err))
				return nil
			}
			starters[i] = match.HasMethod(methods, p.StartAppMethod)
			if !match.HasMethod(methods, p.ListAppsMethod) {
				return nil
			}
			res, err := p.Session.Invoke(gctx, p.ListAppsMethod, nil)
			if err != nil {
				// Treated as "platform does not have the app", not fatal.
				slog.Warn(fmt.Sprintf("%s - %s on %s failed: %v", openLogPrefix, p.ListAppsMethod, p.Name, err))
				return nil
			}
			hosts[i] = appListContains(res, app)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NewAgentError(CodeInternal, err.Error())
	}

	var candidates []int
	for i := range a.platforms {
		if hosts[i] {
			candidates = append(candidates, i)
		}
	}
	switch {
	case len(candidates) == 0:
		return nil, NewAgentError(CodeAppNotFound, fmt.Sprintf("no platform has an application named %q", app))
	case len(candidates) > 1:
		return nil, NewAgentError(CodeAppAmbiguous, fmt.Sprintf("multiple platforms have an application named %q", app))
	}

	// Narrow to candidates that can also start applications; first one wins.
	for _, i := range candidates {
		if starters[i] {
			return a.platforms[i], nil
		}
	}
	return nil, launchError(app, "")
}

// appListContains decodes a list-applications result and checks for app. Both
// plain name arrays and object arrays with a name field are accepted.
func appListContains(res *platform.InvokeResult, app string) bool {
	if res == nil || len(res.Result) == 0 {
		return false
	}
	var objs []AppMetadata
	if err := json.Unmarshal(res.Result, &objs); err == nil {
		for _, o := range objs {
			if o.Name == app {
				return true
			}
		}
		return false
	}
	var names []string
	if err := json.Unmarshal(res.Result, &names); err == nil {
		for _, n := range names {
			if n == app {
				return true
			}
		}
	}
	return false
}
