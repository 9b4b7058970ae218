package generator

import "strings"

const landingPageRequirements = `

Requirements:
- Use Next.js 15 with App Router
- Use Tailwind CSS for styling
- Make it fully responsive (mobile, tablet, desktop)
- Include a clean, professional design
- Add proper semantic HTML structure
- Include engaging visual elements
- Make it production-ready`

// landingPagePrompt frames a tenant's prompt with the house requirements.
func landingPagePrompt(prompt string) string {
	return "Create a modern, responsive landing page for a subdomain tenant. " +
		strings.TrimSpace(prompt) + landingPageRequirements
}
