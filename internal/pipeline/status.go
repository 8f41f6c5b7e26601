package pipeline

import "clinicrawl/internal/models"

// Finalize computes the terminal status of one crawl attempt from what was
// extracted. Statuses set by an earlier fatal step (robots_blocked,
// requires_manual, encoding_error, failed) are left alone.
func Finalize(result *models.CrawlResult, doctorPageFound bool) {
	result.DoctorPageFound = doctorPageFound || result.HasDoctors()

	switch result.Status {
	case models.StatusPending, models.StatusCrawling, models.StatusSuccess, "":
	default:
		return
	}

	hasSocial := result.HasChannels()
	hasDoctors := result.HasDoctors()
	switch {
	case hasSocial && hasDoctors:
		result.Status = models.StatusSuccess
	case hasSocial:
		result.Status = models.StatusPartial
		result.AddError(models.ErrPartialData, "finalize", "Missing doctors: social channels found but no roster", true)
	case hasDoctors:
		result.Status = models.StatusPartial
		result.AddError(models.ErrPartialData, "finalize", "Missing social channels: roster found but no channels", true)
	default:
		result.Status = models.StatusEmpty
	}

	// An error page observed during navigation caps the outcome at partial.
	if result.Status == models.StatusSuccess && hasError(result, models.ErrErrorPage) {
		result.Status = models.StatusPartial
	}
}

func hasError(result *models.CrawlResult, typ models.ErrorType) bool {
	for _, e := range result.Errors {
		if e.Type == typ {
			return true
		}
	}
	return false
}
