package main

import (
	"context"
	"errors"
	"os"

	"ytharvest/cmd/ytharvest/commands"
	"ytharvest/lib/serviceutil"
	"ytharvest/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	_, err := telemetry.SetupFromEnv(context.Background(), "ytharvest")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to set up telemetry", err)
	}
	telemetry.InitSlog(false)
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
