package ldb

import "github.com/dposnet/dposd/infrastructure/logger"

var log = logger.RegisterSubSystem("LDB ")
