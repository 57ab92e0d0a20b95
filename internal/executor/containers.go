// containers.go implements discovery and removal of convoy-labeled
// containers, backing the `convoy clean` command. A run that is killed
// before Cleanup leaves its containers behind; the management label lets
// them be found again without any state file.
package executor

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/convoy-run/convoy/internal/model"
)

// ListJobContainers queries the daemon for all containers carrying the
// convoy management label, including stopped ones. Containers whose
// labels fail to parse are skipped: they are most likely from an
// incompatible convoy version, and clean should not abort on them.
func ListJobContainers(ctx context.Context, cli *Client) ([]JobContainer, error) {
	// Filtering server-side on the management label avoids listing
	// every container on the host.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]JobContainer, 0, len(containers))
	for _, c := range containers {
		jc, err := ParseJobLabels(c.Labels)
		if err != nil {
			continue
		}

		jc.ID = c.ID
		jc.State = c.State
		// The API returns names with a leading slash.
		if len(c.Names) > 0 {
			jc.Name = strings.TrimPrefix(c.Names[0], "/")
		}
		result = append(result, *jc)
	}

	return result, nil
}

// RemoveJobContainers force-removes convoy-labeled containers. When
// runID is non-empty only that run's containers are removed. Returns
// the number of containers removed.
func RemoveJobContainers(ctx context.Context, cli *Client, runID string) (int, error) {
	jobs, err := ListJobContainers(ctx, cli)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, jc := range jobs {
		if runID != "" && jc.RunID != runID {
			continue
		}
		if err := cli.Inner().ContainerRemove(ctx, jc.ID, container.RemoveOptions{Force: true}); err != nil {
			return removed, model.WrapCLIError(
				model.ExitDockerNotRunning,
				"failed to remove container "+jc.Name,
				err,
			)
		}
		removed++
	}

	return removed, nil
}
