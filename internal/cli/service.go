package cli

import "github.com/chris/chronos/internal/service"

type ServiceCmd struct {
	Install   ServiceInstallCmd   `cmd:"" help:"Install chronos as a launchd agent."`
	Uninstall ServiceUninstallCmd `cmd:"" help:"Remove the launchd agent and installed binary."`
	Start     ServiceStartCmd     `cmd:"" help:"Start the daemon."`
	Stop      ServiceStopCmd      `cmd:"" help:"Stop the daemon."`
	Restart   ServiceRestartCmd   `cmd:"" help:"Restart the daemon."`
	Status    ServiceStatusCmd    `cmd:"" help:"Show launchd status."`
	Logs      ServiceLogsCmd      `cmd:"" help:"Follow the daemon logs."`
}

type (
	ServiceInstallCmd   struct{}
	ServiceUninstallCmd struct{}
	ServiceStartCmd     struct{}
	ServiceStopCmd      struct{}
	ServiceRestartCmd   struct{}
	ServiceStatusCmd    struct{}
	ServiceLogsCmd      struct{}
)

func (ServiceInstallCmd) Run(m *service.Manager) error   { return m.Install() }
func (ServiceUninstallCmd) Run(m *service.Manager) error { return m.Uninstall() }
func (ServiceStartCmd) Run(m *service.Manager) error     { return m.Start() }
func (ServiceStopCmd) Run(m *service.Manager) error      { return m.Stop() }
func (ServiceRestartCmd) Run(m *service.Manager) error   { return m.Restart() }
func (ServiceStatusCmd) Run(m *service.Manager) error    { return m.Status() }
func (ServiceLogsCmd) Run(m *service.Manager) error      { return m.Logs() }
