package voice

// Fixed speech for turns that do not depend on upstream data.
const (
	WelcomeMessage      = "Welcome to the charging station finder. You can say things like, find me the nearest charging station, or find a charging station with coffee nearby."
	WelcomeDebugMessage = "Debug mode enabled. Ask me for the nearest charging station."
	AskMessage          = "What would you like to do?"

	HelpMessage      = "You can ask me to find the nearest charging station, or a charging station near coffee, food or stores."
	GoodbyeMessage   = "Goodbye, and happy charging!"
	UnhandledMessage = "This skill doesn't support that. Please ask something else."

	MissingPermissionsMessage = "Please enable location permissions in the Amazon Alexa app."
	MissingLocationMessage    = "It looks like I can't find your current location. Please turn on location sharing or set your device address in the Alexa app."
	LocationRetryMessage      = "Would you like to try again?"
	LocationFailureMessage    = "There was a problem reading your device address. Please try again."

	NoStationsMessage = "I couldn't find any charging stations near you that match your preferences."
	ErrorMessage      = "Sorry, there was some problem. Please try again."
	AnythingElse      = "Anything else?"
)
