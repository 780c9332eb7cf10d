package notifications

import (
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/dposnet/dposd/util/panics"
)

var log = logger.RegisterSubSystem("NTFN")
var spawn = panics.GoroutineWrapperFunc(log)
