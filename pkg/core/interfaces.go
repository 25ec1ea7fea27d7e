package core

import "github.com/arnavsurve/stepcheck/pkg/types"

type Event = types.Event

type Context = types.Context

type Logger = types.Logger
