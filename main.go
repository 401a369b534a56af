package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/idltd/CCTV-Log/api/handlers"
	"github.com/idltd/CCTV-Log/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { // initialize database, redis and router
		log.Fatal(err)
	}
	defer a.Shutdown()

	zap.S().Infow("cctv-log is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
