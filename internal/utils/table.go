package utils

import "github.com/palletworks/pallet/internal/logger"

type RecipeStatus struct {
	Name      string
	Status    string
	Downloads string
	Packages  string
}

func CreateStatusTable(title string, recipes []RecipeStatus) {
	if title != "" {
		logger.Info("%s", title)
	}

	table := logger.CreateTable([]string{"Recipe", "Status", "Downloads", "Packages"})

	for _, r := range recipes {
		err := table.Append([]string{r.Name, r.Status, r.Downloads, r.Packages})
		if err != nil {
			logger.LogError("Error appending to table: %v", err)
			return
		}
	}

	err := table.Render()
	if err != nil {
		logger.LogError("Error rendering table: %v", err)
		return
	}
}
