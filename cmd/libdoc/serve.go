package main

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	deps.Logger.Info("serving MCP over stdio")
	return deps.Serve(deps.Ctx)
}
