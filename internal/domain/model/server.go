package model

import "time"

// Server describes how to reach one hypervisor management endpoint.
type Server struct {
	Host          string
	Port          int
	User          string
	Password      string
	Realm         string
	TLSSkipVerify bool
	Timeout       time.Duration
}
