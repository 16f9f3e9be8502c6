// Package metrics считает обращения к доступам, входы и HTTP-запросы.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты для счётчиков доступа и входа.
const (
	ResultSuccess     = "success"
	ResultDenied      = "denied"
	ResultExpired     = "expired"
	ResultRateLimited = "rate_limited"
)

// Recorder — то, что сервисы и middleware знают о метриках.
type Recorder interface {
	ShareAccess(result string)
	Login(result string)
	HTTPRequest(method string, code int)
}

// Prometheus пишет счётчики в переданный реестр.
type Prometheus struct {
	shareAccess *prometheus.CounterVec
	login       *prometheus.CounterVec
	requests    *prometheus.CounterVec
}

// New регистрирует счётчики в reg. Повторная регистрация в том же реестре паникует.
func New(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		shareAccess: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultkeeper_share_access_total",
			Help: "Share access attempts by result.",
		}, []string{"result"}),
		login: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultkeeper_login_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultkeeper_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
}

func (p *Prometheus) ShareAccess(result string) { p.shareAccess.WithLabelValues(result).Inc() }
func (p *Prometheus) Login(result string)       { p.login.WithLabelValues(result).Inc() }

func (p *Prometheus) HTTPRequest(method string, code int) {
	p.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// Nop ничего не считает.
type Nop struct{}

func (Nop) ShareAccess(string)      {}
func (Nop) Login(string)            {}
func (Nop) HTTPRequest(string, int) {}
