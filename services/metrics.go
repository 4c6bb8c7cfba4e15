package services

import "github.com/prometheus/client_golang/prometheus"

var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_login_attempts_total", Help: "Login attempts by outcome"},
		[]string{"result"},
	)
	refreshAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_refresh_attempts_total", Help: "Refresh token exchanges by outcome"},
		[]string{"result"},
	)
)

func init() { prometheus.MustRegister(loginAttempts, refreshAttempts) }
