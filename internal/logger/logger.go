package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

func Get() *logrus.Logger {
	return logg
}

// LogError - modül/işlev bağlamıyla hata kaydı
func LogError(module string, funcName string, err error) {
	logg.WithFields(logrus.Fields{
		"module":   module,
		"funcName": funcName,
	}).Error(err.Error())
}
