package middleware

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
)

const DefaultRateLimit = 1000 // requests per sliding hour

type SecurityRepository interface {
	FindToken(token string) (*entity.ApiToken, error)
	FindIpRules(clientID int64) ([]*entity.IpRule, error)
	LogDenial(reason entity.BlockReason, ip, token, endpoint string) error
	CountHits(tokenID int64, since int64) (int64, error)
	RecordHit(tokenID int64) error
}

// SecurityGate authorizes every data API request in strict priority order:
// token state, IP rules, rate limit, entitlement. The first failing check
// short-circuits the rest, is audited, and maps to a specific status code.
type SecurityGate struct {
	Repo             SecurityRepository
	DefaultRateLimit int
	Now              func() int64
}

func NewSecurityGate(repo SecurityRepository) *SecurityGate {
	return &SecurityGate{
		Repo:             repo,
		DefaultRateLimit: DefaultRateLimit,
		Now:              utils.NowUTC,
	}
}

// Require builds the middleware guarding routes of one service type.
func (g *SecurityGate) Require(service entity.ServiceType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, denial, apierr := g.check(c, service)
			if apierr != nil {
				g.audit(c, denial, token)
				return c.JSON(apierr.Code(), apierr)
			}

			c.Set("api_token", token)
			c.Set("client", &token.Client)
			return next(c)
		}
	}
}

// check runs the priority chain. It returns the token (when one was found)
// so even denials can be audited against it.
func (g *SecurityGate) check(c echo.Context, service entity.ServiceType) (*entity.ApiToken, entity.BlockReason, apierror.ErrorResponse) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, entity.ReasonMissingToken, apierror.UnauthorizedError
	}

	token, err := g.Repo.FindToken(raw)
	if err != nil {
		log.Errorf("failed to look up api token: %v", err)
		return nil, "", apierror.InternalServerError
	}

	if token == nil {
		return nil, entity.ReasonUnknownToken, apierror.UnauthorizedError
	}

	// Blocked wins over everything else, including checks that would pass.
	if token.Blocked {
		return token, entity.ReasonBlockedToken, apierror.TokenBlockedError
	}

	if !token.Active {
		return token, entity.ReasonInactiveToken, apierror.TokenInactiveError
	}

	now := g.Now()
	if token.ExpiresAt > 0 && token.ExpiresAt < now {
		return token, entity.ReasonExpiredToken, apierror.TokenExpiredError
	}

	ip := c.RealIP()
	if !g.ipAllowed(token, ip) {
		return token, entity.ReasonBlockedIP, apierror.IPBlockedError
	}

	if denied, apierr := g.rateLimit(c, token, now); denied {
		return token, entity.ReasonRateLimited, apierr
	}

	if !entitled(&token.Client, service) {
		return token, entity.ReasonNotEntitled, apierror.NotEntitledError
	}

	return token, "", nil
}

// ipAllowed applies the token's own allow list first, then the stored rules.
// Client-scoped rules override global ones; an explicit block always beats
// an explicit allow at the same scope. No matching rule means allowed.
func (g *SecurityGate) ipAllowed(token *entity.ApiToken, ip string) bool {
	if token.AllowedIPs != "" && !listContainsIP(token.AllowedIPs, ip) {
		return false
	}

	rules, err := g.Repo.FindIpRules(token.ClientSystemID)
	if err != nil {
		log.Errorf("failed to load ip rules for client %d: %v", token.ClientSystemID, err)
		// Fail closed: without rules we cannot prove the address is fine.
		return false
	}

	scoped := verdict(rules, ip, token.ClientSystemID)
	if scoped != verdictNone {
		return scoped == verdictAllow
	}

	global := verdict(rules, ip, 0)
	if global != verdictNone {
		return global == verdictAllow
	}
	return true
}

type ruleVerdict int

const (
	verdictNone ruleVerdict = iota
	verdictAllow
	verdictBlock
)

func verdict(rules []*entity.IpRule, ip string, scope int64) ruleVerdict {
	result := verdictNone
	for _, rule := range rules {
		if rule.ClientSystemID != scope || !matchIP(rule.IpAddress, ip) {
			continue
		}
		if rule.RuleType == entity.IpRuleBlock {
			return verdictBlock
		}
		result = verdictAllow
	}
	return result
}

// matchIP compares against a single address or a CIDR range.
func matchIP(ruleAddr, ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	if strings.Contains(ruleAddr, "/") {
		_, network, err := net.ParseCIDR(ruleAddr)
		if err != nil {
			return false
		}
		return network.Contains(parsed)
	}
	return ruleAddr == ip
}

func listContainsIP(list, ip string) bool {
	for _, entry := range strings.Split(list, ",") {
		if matchIP(strings.TrimSpace(entry), ip) {
			return true
		}
	}
	return false
}

// rateLimit enforces the sliding hourly window. The counter is persisted so
// concurrent stateless invocations share it.
func (g *SecurityGate) rateLimit(c echo.Context, token *entity.ApiToken, now int64) (bool, apierror.ErrorResponse) {
	limit := g.DefaultRateLimit
	if token.RateLimitOverride > 0 {
		limit = token.RateLimitOverride
	}

	since := now - time.Hour.Milliseconds()
	count, err := g.Repo.CountHits(token.ID, since)
	if err != nil {
		log.Errorf("failed to count rate limit hits for token %d: %v", token.ID, err)
		return true, apierror.InternalServerError
	}

	remaining := int64(limit) - count
	if remaining <= 0 {
		c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Response().Header().Set("X-RateLimit-Remaining", "0")
		return true, apierror.RateLimitedError
	}

	if err := g.Repo.RecordHit(token.ID); err != nil {
		log.Errorf("failed to record rate limit hit for token %d: %v", token.ID, err)
	}

	c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining-1, 10))
	return false, nil
}

func entitled(client *entity.ClientSystem, service entity.ServiceType) bool {
	for _, e := range client.Entitlements {
		if e.ServiceType == service {
			return true
		}
	}
	return false
}

func (g *SecurityGate) audit(c echo.Context, reason entity.BlockReason, token *entity.ApiToken) {
	if reason == "" {
		return
	}

	raw := ""
	if token != nil {
		raw = token.Token
	} else {
		raw = bearerToken(c)
	}

	err := g.Repo.LogDenial(reason, c.RealIP(), raw, c.Request().URL.Path)
	if err != nil {
		log.Errorf("failed to write security log entry: %v", err)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
