package app

import (
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/dposnet/dposd/util/panics"
)

var log = logger.RegisterSubSystem("DPSD")
var spawn = panics.GoroutineWrapperFunc(log)
