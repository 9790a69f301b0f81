// Package app wires configuration, logging, telemetry and the pipeline
// stages for the batch commands.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, file and environment
//	2. Apply command line overrides and revalidate
//	3. Resolve and create the working directories
//	4. Initialize logging and telemetry
//
// # Usage
//
//	ctx, stop := app.SignalContext(context.Background())
//	defer stop()
//
//	application, err := app.NewApplication(app.Options{ConfigPath: path})
//	if err != nil {
//		return err
//	}
//	defer application.Stop(ctx)
//
//	_, err = application.Consolidate(ctx)
package app
