package planner_test

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/autoinstall/pkg/command"
	"github.com/matzehuels/autoinstall/pkg/modules"
	"github.com/matzehuels/autoinstall/pkg/planner"
	"github.com/matzehuels/autoinstall/pkg/store"
)

func ExamplePlanner_Run() {
	s := store.New("/app")
	s.ReplaceAll(
		[]modules.Module{{Name: "left-pad"}},
		[]modules.Module{{Name: "right-pad", SourceFile: "/app/index.js"}},
	)

	p := planner.New(s, planner.Options{
		Manager: command.NPM,
		DryRun:  true,
	})
	report := p.Run(context.Background(), time.Now())
	for _, line := range report.Planned {
		fmt.Println(line)
	}
	// Output:
	// npm install right-pad --save
	// npm uninstall left-pad --save
}
